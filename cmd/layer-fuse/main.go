// 图层融合工具：Activities × Sites 融合并输出结果行数
// 用法：ACTIVITIES=activities SITES=sites ACTIVITY_ID_FIELD=hail_no SITE_ID_FIELD=site_no layer-fuse
// 可选：THRESHOLD=5 PRECLEAN=true CARRY_FIELDS=owner,status
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"llur-overlap/internal/fusion"
	"llur-overlap/internal/logger"
	"llur-overlap/internal/migrate"
	"llur-overlap/internal/store"
	"llur-overlap/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	logger.Setup()
	opts := fusion.Options{
		Activities:      os.Getenv("ACTIVITIES"),
		Sites:           os.Getenv("SITES"),
		ActivityIDField: os.Getenv("ACTIVITY_ID_FIELD"),
		SiteIDField:     os.Getenv("SITE_ID_FIELD"),
		Threshold:       5,
	}
	if opts.Activities == "" || opts.Sites == "" || opts.ActivityIDField == "" || opts.SiteIDField == "" {
		log.Fatal("ACTIVITIES, SITES, ACTIVITY_ID_FIELD and SITE_ID_FIELD required")
	}
	if s := os.Getenv("THRESHOLD"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			log.Fatal("bad THRESHOLD")
		}
		opts.Threshold = f
	}
	if s := os.Getenv("CARRY_FIELDS"); s != "" {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				opts.CarryFields = append(opts.CarryFields, p)
			}
		}
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
	cat := store.CatalogFromEnv()
	var n int64
	if os.Getenv("PRECLEAN") == "true" {
		n, err = fusion.FuseLayersWithPreclean(context.Background(), st, cat, opts)
	} else {
		n, err = fusion.FuseLayers(context.Background(), st, cat, opts)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(n)
}
