package overlap

import (
	"llur-overlap/internal/geom"
	"llur-overlap/internal/metrics"
)

// Prune：丢弃自反记录（要素与自身恒为 100% 相交）
// 约束：必须先于分类执行；自反对没有有意义的第二方向，
// 混入会破坏按无序对归并的双向判定
func Prune(records []geom.OverlapRecord) []geom.OverlapRecord {
	out := records[:0]
	for _, r := range records {
		if r.ParentFID == r.ChildFID {
			if r.Geom != nil {
				r.Geom.Destroy()
			}
			metrics.ReflexivePrunedTotal.Inc()
			continue
		}
		out = append(out, r)
	}
	return out
}
