// 包 fusion：跨图层融合——Activities 叠加到 Sites，产出占比、包含与组合编号的单一属性集
package fusion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"llur-overlap/internal/geom"
	"llur-overlap/internal/logger"
	"llur-overlap/internal/metrics"
	"llur-overlap/internal/overlap"
	"llur-overlap/internal/store"

	"github.com/twpayne/go-geos"
)

// Options：一次融合运行的显式参数，不依赖任何环境状态
type Options struct {
	Activities      string
	Sites           string
	ActivityIDField string
	SiteIDField     string
	Threshold       float64
	// CarryFields：需要投影到输出表的站点属性键；字段名撞名由存储层解决
	CarryFields []string
}

// Record：融合记录（内存形态）
// 派生字段一次写入：占比以站点面积为分母，包含判定与组合编号同批计算，
// 两个入口共用同一条计算路径避免行为分叉
type Record struct {
	SiteFID          int
	ActivityFID      int
	SiteBiz          string
	ActivityBiz      string
	IntersectionArea float64
	AreaPercent      float64
	FullyContained   bool
	CompositeID      string
	Geom             *geos.Geom
}

// lookups：单次运行构建、只读使用、运行结束即弃的查找表
type lookups struct {
	siteArea  map[int]float64
	siteGeom  map[int]*geos.Geom
	siteProps map[int]map[string]any
	actGeom   map[int]*geos.Geom
}

// buildLookups：单趟扫描构建站点/活动查找表
// 约束：标识重复违反前置条件，处理开始前报错
func buildLookups(sites, activities []geom.Feature) (*lookups, error) {
	lk := &lookups{
		siteArea:  make(map[int]float64, len(sites)),
		siteGeom:  make(map[int]*geos.Geom, len(sites)),
		siteProps: make(map[int]map[string]any, len(sites)),
		actGeom:   make(map[int]*geos.Geom, len(activities)),
	}
	for _, s := range sites {
		if _, dup := lk.siteArea[s.FID]; dup {
			return nil, &overlap.InputValidationError{Layer: "sites", FID: s.FID, Msg: "duplicate feature identity"}
		}
		lk.siteArea[s.FID] = s.Area
		lk.siteGeom[s.FID] = s.Geom
		lk.siteProps[s.FID] = s.Props
	}
	for _, a := range activities {
		if _, dup := lk.actGeom[a.FID]; dup {
			return nil, &overlap.InputValidationError{Layer: "activities", FID: a.FID, Msg: "duplicate feature identity"}
		}
		lk.actGeom[a.FID] = a.Geom
	}
	return lk, nil
}

// buildRecords：第一遍——为每条叠加结果计算派生字段
// 约束：叠加结果引用了查找表之外的要素标识即为存储与几何后端不一致，致命
func buildRecords(rows []geom.FusionRow, lk *lookups, layerName string) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		sa, ok := lk.siteArea[r.SiteFID]
		if !ok {
			return nil, &overlap.ConsistencyError{Layer: layerName, FID: r.SiteFID, Msg: "fusion row references unknown site"}
		}
		sg := lk.siteGeom[r.SiteFID]
		ag, ok := lk.actGeom[r.ActivityFID]
		if !ok {
			return nil, &overlap.ConsistencyError{Layer: layerName, FID: r.ActivityFID, Msg: "fusion row references unknown activity"}
		}
		out = append(out, Record{
			SiteFID:          r.SiteFID,
			ActivityFID:      r.ActivityFID,
			SiteBiz:          r.SiteBiz,
			ActivityBiz:      r.ActivityBiz,
			IntersectionArea: r.IntersectionArea,
			AreaPercent:      100 * r.IntersectionArea / sa,
			FullyContained:   geom.Contains(sg, ag),
			CompositeID:      r.SiteBiz + "_" + r.ActivityBiz,
			Geom:             r.Geom,
		})
	}
	return out, nil
}

// applyThreshold：第二遍——低于阈值且未被完整包含的记录删除
// 约束：此处边界为闭区间（<=），与同层误差判定的 >=/< 组合是两套独立策略，不可合并
func applyThreshold(records []Record, threshold float64) (survive, deleted []Record) {
	for _, r := range records {
		if r.AreaPercent <= threshold && !r.FullyContained {
			deleted = append(deleted, r)
			continue
		}
		survive = append(survive, r)
	}
	return survive, deleted
}

// FuseLayers：融合入口（输入图层已完成叠加清洗）
// 返回融合输出表的行数；表内容为持久化结果
func FuseLayers(ctx context.Context, st *store.Store, cat store.Catalog, opts Options) (int64, error) {
	sites, err := overlap.LoadFeatures(ctx, st, opts.Sites, opts.SiteIDField)
	if err != nil {
		return 0, err
	}
	defer geom.DestroyFeatures(sites)
	activities, err := overlap.LoadFeatures(ctx, st, opts.Activities, opts.ActivityIDField)
	if err != nil {
		return 0, err
	}
	defer geom.DestroyFeatures(activities)
	return fuse(ctx, st, cat, opts, sites, activities)
}

// FuseLayersWithPreclean：备选入口——先对两个图层独立执行叠加清洗再融合
// 背景：各图层使用自己的业务编号字段做清洗；清洗产物（干净图层）作为融合输入，
// 派生字段计算与 FuseLayers 完全同路
func FuseLayersWithPreclean(ctx context.Context, st *store.Store, cat store.Catalog, opts Options) (int64, error) {
	if _, _, err := overlap.ResolveSelfOverlaps(ctx, st, cat, opts.Sites, opts.SiteIDField, opts.Threshold); err != nil {
		return 0, err
	}
	if _, _, err := overlap.ResolveSelfOverlaps(ctx, st, cat, opts.Activities, opts.ActivityIDField, opts.Threshold); err != nil {
		return 0, err
	}
	sites, err := loadCleanFeatures(ctx, st, cat.NoOverlapTable(opts.Sites), opts.Sites)
	if err != nil {
		return 0, err
	}
	defer geom.DestroyFeatures(sites)
	activities, err := loadCleanFeatures(ctx, st, cat.NoOverlapTable(opts.Activities), opts.Activities)
	if err != nil {
		return 0, err
	}
	defer geom.DestroyFeatures(activities)
	return fuse(ctx, st, cat, opts, sites, activities)
}

// loadCleanFeatures：读取叠加清洗产出的干净图层
// 约束：清洗可能把站点面积擦成非正值，此时融合占比无定义，整体报错
func loadCleanFeatures(ctx context.Context, st *store.Store, table, layer string) ([]geom.Feature, error) {
	var out []geom.Feature
	err := st.ForEachLayerRow(ctx, table, func(fid int, bizID string, area float64, props []byte, geomJSON string) error {
		p := map[string]any{}
		if len(props) > 0 {
			_ = json.Unmarshal(props, &p)
		}
		g, err := geom.Parse(geomJSON)
		if err != nil {
			return &overlap.InputValidationError{Layer: layer, FID: fid, Msg: "bad geometry: " + err.Error()}
		}
		a := geom.Area(g)
		if a <= 0 {
			g.Destroy()
			return &overlap.InputValidationError{Layer: layer, FID: fid, Msg: "non-positive area"}
		}
		out = append(out, geom.Feature{FID: fid, BizID: bizID, Area: a, Geom: g, Props: p})
		return nil
	})
	if err != nil {
		geom.DestroyFeatures(out)
		return nil, err
	}
	return out, nil
}

// fuse：两个入口共用的融合主体
func fuse(ctx context.Context, st *store.Store, cat store.Catalog, opts Options, sites, activities []geom.Feature) (int64, error) {
	start := time.Now()
	l := logger.L()
	layerName := opts.Activities + "×" + opts.Sites
	l.Info("fuse_begin", "activities", opts.Activities, "sites", opts.Sites, "threshold", opts.Threshold)

	lk, err := buildLookups(sites, activities)
	if err != nil {
		return 0, err
	}

	rows := geom.Intersect(activities, sites)
	recs, err := buildRecords(rows, lk, layerName)
	if err != nil {
		geom.DestroyRows(rows)
		return 0, err
	}
	metrics.FusionRowsTotal.Add(float64(len(recs)))

	table := cat.FusionTable(opts.Activities, opts.Sites)
	if err := st.CreateFusionTable(ctx, table); err != nil {
		geom.DestroyRows(rows)
		return 0, err
	}
	outRows := make([]store.FusionOut, 0, len(recs))
	for _, r := range recs {
		outRows = append(outRows, store.FusionOut{
			SiteFID:          r.SiteFID,
			ActivityFID:      r.ActivityFID,
			SiteBiz:          r.SiteBiz,
			ActivityBiz:      r.ActivityBiz,
			CompositeID:      r.CompositeID,
			IntersectionArea: r.IntersectionArea,
			AreaPercent:      r.AreaPercent,
			FullyContained:   r.FullyContained,
			Geom:             geom.ToGeoJSON(r.Geom),
		})
	}
	if err := st.WriteFusionRows(ctx, table, outRows); err != nil {
		geom.DestroyRows(rows)
		return 0, err
	}

	survive, deleted := applyThreshold(recs, opts.Threshold)
	for _, r := range deleted {
		if err := st.DeleteFusionRow(ctx, table, r.SiteFID, r.ActivityFID); err != nil {
			geom.DestroyRows(rows)
			return 0, err
		}
		metrics.FusionRowsDeletedTotal.Inc()
	}

	if err := carryFields(ctx, st, table, opts.CarryFields, survive, lk); err != nil {
		geom.DestroyRows(rows)
		return 0, err
	}
	geom.DestroyRows(rows)

	count, err := st.CountRows(ctx, table)
	if err != nil {
		return 0, err
	}
	dur := time.Since(start)
	metrics.FuseDurationMs.Observe(float64(dur.Milliseconds()))
	_ = st.RecordRun(ctx, "fuse", layerName, opts.Threshold, count, dur)
	l.Info("fuse_done", "table", table, "rows", count, "deleted", len(deleted), "duration_ms", dur.Milliseconds())
	return count, nil
}

// carryFields：把选定的站点属性键投影为输出表字段
// 背景：输出表可能被导出到字段名受限的交换格式，最终字段名由存储层按宽度与撞名规则决定
func carryFields(ctx context.Context, st *store.Store, table string, keys []string, survive []Record, lk *lookups) error {
	for _, key := range keys {
		field, err := st.EnsurePropColumn(ctx, table, key)
		if err != nil {
			return err
		}
		for _, r := range survive {
			props := lk.siteProps[r.SiteFID]
			if props == nil {
				continue
			}
			v, ok := props[key]
			if !ok {
				continue
			}
			if err := st.UpdateFusionField(ctx, table, field, r.SiteFID, r.ActivityFID, fmt.Sprintf("%v", v)); err != nil {
				return err
			}
		}
	}
	return nil
}
