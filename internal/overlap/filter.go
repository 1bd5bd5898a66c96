package overlap

import (
	"llur-overlap/internal/geom"
)

// Filter：物化问题集——删除判定为有意嵌套的记录，保留绘制误差记录
// 背景：有意嵌套是预期数据，不属于问题集；误差记录留作元数据，
// 其覆盖范围随后从原图层中整体擦除
// 约束：记录的 PairKey 不在判定表中说明上游两步未覆盖同一记录集，致命
func Filter(records []geom.OverlapRecord, cls map[string]Classification, layer string) ([]geom.OverlapRecord, error) {
	var kept, dropped []geom.OverlapRecord
	for _, r := range records {
		k := PairKey(r.ParentFID, r.ChildFID)
		c, ok := cls[k]
		if !ok {
			return nil, &ConsistencyError{Layer: layer, PairKey: k, FID: r.ParentFID, Msg: "overlap record has no classification"}
		}
		if c == GenuineOverlap {
			dropped = append(dropped, r)
			continue
		}
		kept = append(kept, r)
	}
	// 句柄释放放在整体判定通过之后，中途出错时由调用方统一清理
	geom.DestroyRecords(dropped)
	return kept, nil
}
