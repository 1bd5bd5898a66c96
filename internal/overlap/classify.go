package overlap

import "llur-overlap/internal/geom"

// Classification：无序对的判定结果，单次运行内计算一次后只读
type Classification int

const (
	// ArtifactOverlap：两个方向占比均低于阈值，视为绘制误差
	ArtifactOverlap Classification = iota
	// GenuineOverlap：任一方向占比达到阈值，视为有意嵌套
	GenuineOverlap
)

// AreaPercent：记录的方向占比——交集面积占子要素面积的百分比
// 背景：父/子是同一无序对的两次方向实例化，占比天然非对称；
// 小要素嵌在大要素里时只有小要素视角的占比高
func AreaPercent(r geom.OverlapRecord) float64 {
	return 100 * r.IntersectionArea / r.ChildArea
}

// Classify：按 PairKey 归并双向记录并给出判定
// 约束：阈值在"高占比"一侧取闭区间（>=），"低占比"一侧取开区间（<）；
// 只要任一方向达到阈值即为有意嵌套——双向都低才按误差剔除，
// 避免把刻意画在大面里的小面当成误差擦掉
func Classify(records []geom.OverlapRecord, threshold float64) map[string]Classification {
	cls := make(map[string]Classification)
	for _, r := range records {
		k := PairKey(r.ParentFID, r.ChildFID)
		if AreaPercent(r) >= threshold {
			cls[k] = GenuineOverlap
			continue
		}
		if _, seen := cls[k]; !seen {
			cls[k] = ArtifactOverlap
		}
	}
	return cls
}
