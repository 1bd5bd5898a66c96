// 图层导入工具：把 GeoJSON FeatureCollection 文件写入属性存储
// 用法：LAYER=sites GEOJSON_PATH=data/sites.geojson layer-ingest
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"llur-overlap/internal/ingest"
	"llur-overlap/internal/logger"
	"llur-overlap/internal/migrate"
	"llur-overlap/internal/store"
	"llur-overlap/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	logger.Setup()
	layer := os.Getenv("LAYER")
	path := os.Getenv("GEOJSON_PATH")
	if layer == "" || path == "" {
		log.Fatal("LAYER and GEOJSON_PATH required")
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		log.Fatal(err)
	}
	n, err := ingest.LoadFile(context.Background(), store.AttachDB(db), layer, path)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(n)
}
