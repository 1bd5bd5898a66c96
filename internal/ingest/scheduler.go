package ingest

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"llur-overlap/internal/logger"
	"llur-overlap/internal/overlap"
	"llur-overlap/internal/store"
)

const defaultThreshold = 5.0

// nextDailyAt：计算下一次指定整点的时间点（当日已过则取次日）
func nextDailyAt(loc *time.Location, hour int) time.Time {
	now := time.Now().In(loc)
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if t.After(now) {
		return t
	}
	d := now.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}

// StartNightlyResolve：在新西兰时间（Pacific/Auckland）每日 2:00 重跑自叠加解析
// 背景：登记册图层白天持续编辑，夜间整层重算保证次日输出表是新鲜的；
// 错误由日志记录，任务继续调度
// 约束：LLUR_RESOLVE_LAYERS 为逗号分隔的 "图层:编号字段" 列表；
// 可用 LLUR_RESOLVE_HOUR 覆盖小时（整数），LLUR_RESOLVE_THRESHOLD 覆盖阈值
func StartNightlyResolve(st *store.Store, cat store.Catalog) {
	l := logger.L()
	specs := parseLayerSpecs(os.Getenv("LLUR_RESOLVE_LAYERS"))
	if len(specs) == 0 {
		l.Info("nightly_resolve_disabled")
		return
	}
	loc, _ := time.LoadLocation("Pacific/Auckland")
	hour := 2
	if h := os.Getenv("LLUR_RESOLVE_HOUR"); h != "" {
		if n, err := strconv.Atoi(h); err == nil {
			hour = n
		}
	}
	threshold := defaultThreshold
	if t := os.Getenv("LLUR_RESOLVE_THRESHOLD"); t != "" {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			threshold = f
		}
	}
	next := nextDailyAt(loc, hour)
	go func() {
		for {
			time.Sleep(time.Until(next))
			for _, sp := range specs {
				l.Info("nightly_resolve_start", "layer", sp.layer)
				if _, _, err := overlap.ResolveSelfOverlaps(context.Background(), st, cat, sp.layer, sp.idField, threshold); err != nil {
					l.Error("nightly_resolve_error", "layer", sp.layer, "err", err)
				}
			}
			next = next.AddDate(0, 0, 1)
		}
	}()
}

type layerSpec struct {
	layer   string
	idField string
}

func parseLayerSpecs(s string) []layerSpec {
	var out []layerSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		layer, field, ok := strings.Cut(part, ":")
		if !ok || layer == "" || field == "" {
			logger.L().Warn("nightly_resolve_bad_spec", "spec", part)
			continue
		}
		out = append(out, layerSpec{layer: layer, idField: field})
	}
	return out
}
