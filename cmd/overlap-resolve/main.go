// 自叠加解析工具：对单个图层执行整层解析并输出行数
// 用法：LAYER=sites ID_FIELD=site_no THRESHOLD=5 overlap-resolve
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"llur-overlap/internal/logger"
	"llur-overlap/internal/migrate"
	"llur-overlap/internal/overlap"
	"llur-overlap/internal/store"
	"llur-overlap/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	logger.Setup()
	layer := os.Getenv("LAYER")
	idField := os.Getenv("ID_FIELD")
	if layer == "" || idField == "" {
		log.Fatal("LAYER and ID_FIELD required")
	}
	threshold := 5.0
	if s := os.Getenv("THRESHOLD"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			log.Fatal("bad THRESHOLD")
		}
		threshold = f
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		log.Fatal(err)
	}
	st := store.AttachDB(db)
	ov, cl, err := overlap.ResolveSelfOverlaps(context.Background(), st, store.CatalogFromEnv(), layer, idField, threshold)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(ov, cl)
}
