package overlap

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"llur-overlap/internal/geom"
	"llur-overlap/internal/logger"
	"llur-overlap/internal/metrics"
	"llur-overlap/internal/store"

	"github.com/twpayne/go-geos"
)

// LoadFeatures：流式读取图层并构建内存要素
// 背景：业务编号字段名随图层不同（Sites/Activities 各有编号体系），由调用方指定；
// 面积与几何句柄在载入时一次性委托几何后端取得
// 约束：编号字段缺失、几何非法、面积非正都在处理开始前整体报错
func LoadFeatures(ctx context.Context, st *store.Store, layer, idField string) ([]geom.Feature, error) {
	var out []geom.Feature
	err := st.ForEachFeature(ctx, layer, func(fid int, props []byte, geomJSON string) error {
		p := map[string]any{}
		if len(props) > 0 {
			if err := json.Unmarshal(props, &p); err != nil {
				return &InputValidationError{Layer: layer, FID: fid, Msg: "bad props payload"}
			}
		}
		raw, ok := p[idField]
		if !ok {
			return &InputValidationError{Layer: layer, Field: idField, FID: fid, Msg: "identity field absent"}
		}
		biz := fmt.Sprintf("%v", raw)
		if biz == "" {
			return &InputValidationError{Layer: layer, Field: idField, FID: fid, Msg: "identity field empty"}
		}
		g, err := geom.Parse(geomJSON)
		if err != nil {
			return &InputValidationError{Layer: layer, FID: fid, Msg: "bad geometry: " + err.Error()}
		}
		a := geom.Area(g)
		if a <= 0 {
			g.Destroy()
			return &InputValidationError{Layer: layer, FID: fid, Msg: "non-positive area"}
		}
		metrics.FeaturesLoadedTotal.WithLabelValues(layer).Inc()
		out = append(out, geom.Feature{FID: fid, BizID: biz, Area: a, Geom: g, Props: p})
		return nil
	})
	if err != nil {
		geom.DestroyFeatures(out)
		return nil, err
	}
	return out, nil
}

// resolvePipeline：内存内的完整解析管线
// 顺序固定：自叠加 → 去自反 → 按无序对分类 → 过滤 → 擦除误差覆盖范围；
// 分类必须覆盖全部记录后才允许过滤（同组内的双向判定是整体决策）
func resolvePipeline(features []geom.Feature, threshold float64, layer string) ([]geom.OverlapRecord, []geom.Feature, map[string]Classification, error) {
	raw := geom.IntersectSelf(features)
	pruned := Prune(raw)
	cls := Classify(pruned, threshold)
	kept, err := Filter(pruned, cls, layer)
	if err != nil {
		geom.DestroyRecords(pruned)
		return nil, nil, nil, err
	}
	cleaned := geom.Erase(features, collectGeoms(kept))
	return kept, cleaned, cls, nil
}

// ResolveSelfOverlaps：单图层自叠加解析入口
// 返回问题叠加表与干净图层表的行数；其余结果均为持久化图层而非返回值
func ResolveSelfOverlaps(ctx context.Context, st *store.Store, cat store.Catalog, layer, idField string, threshold float64) (int64, int64, error) {
	start := time.Now()
	l := logger.L()
	l.Info("resolve_begin", "layer", layer, "id_field", idField, "threshold", threshold)

	features, err := LoadFeatures(ctx, st, layer, idField)
	if err != nil {
		return 0, 0, err
	}
	defer geom.DestroyFeatures(features)

	kept, cleaned, cls, err := resolvePipeline(features, threshold, layer)
	if err != nil {
		return 0, 0, err
	}
	defer geom.DestroyRecords(kept)
	defer geom.DestroyFeatures(cleaned)
	for _, c := range cls {
		if c == GenuineOverlap {
			metrics.PairsGenuineTotal.Inc()
		} else {
			metrics.PairsArtifactTotal.Inc()
		}
	}

	overlapTable := cat.OverlapTable(layer)
	if err := st.CreateOverlapTable(ctx, overlapTable); err != nil {
		return 0, 0, err
	}
	rows := make([]store.OverlapRow, 0, len(kept))
	for _, r := range kept {
		rows = append(rows, store.OverlapRow{
			PairKey:          PairKey(r.ParentFID, r.ChildFID),
			ParentFID:        r.ParentFID,
			ChildFID:         r.ChildFID,
			ParentBiz:        r.ParentBiz,
			ChildBiz:         r.ChildBiz,
			IntersectionArea: r.IntersectionArea,
			ParentArea:       r.ParentArea,
			ChildArea:        r.ChildArea,
			AreaPercent:      AreaPercent(r),
			Geom:             geom.ToGeoJSON(r.Geom),
		})
	}
	if err := st.WriteOverlapRows(ctx, overlapTable, rows); err != nil {
		return 0, 0, err
	}

	layerTable := cat.NoOverlapTable(layer)
	if err := st.CreateLayerTable(ctx, layerTable); err != nil {
		return 0, 0, err
	}
	lrows := make([]store.LayerRow, 0, len(cleaned))
	for _, f := range cleaned {
		props, _ := json.Marshal(f.Props)
		lrows = append(lrows, store.LayerRow{
			FID:   f.FID,
			BizID: f.BizID,
			Area:  f.Area,
			Props: props,
			Geom:  geom.ToGeoJSON(f.Geom),
		})
	}
	if err := st.WriteLayerRows(ctx, layerTable, lrows); err != nil {
		return 0, 0, err
	}

	overlapCount, err := st.CountRows(ctx, overlapTable)
	if err != nil {
		return 0, 0, err
	}
	cleanCount, err := st.CountRows(ctx, layerTable)
	if err != nil {
		return 0, 0, err
	}
	dur := time.Since(start)
	metrics.ResolveDurationMs.Observe(float64(dur.Milliseconds()))
	_ = st.RecordRun(ctx, "resolve", layer, threshold, overlapCount, dur)
	l.Info("resolve_done", "layer", layer, "overlap_rows", overlapCount, "clean_rows", cleanCount, "duration_ms", dur.Milliseconds())
	return overlapCount, cleanCount, nil
}

func collectGeoms(records []geom.OverlapRecord) []*geos.Geom {
	out := make([]*geos.Geom, 0, len(records))
	for _, r := range records {
		out = append(out, r.Geom)
	}
	return out
}
