package overlap

import (
	"testing"

	"llur-overlap/internal/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rec：便捷构造——几何句柄留空，分类与过滤只看面积字段
func rec(parentFID, childFID int, inter, parentArea, childArea float64) geom.OverlapRecord {
	return geom.OverlapRecord{
		ParentFID:        parentFID,
		ChildFID:         childFID,
		IntersectionArea: inter,
		ParentArea:       parentArea,
		ChildArea:        childArea,
	}
}

func TestAreaPercentUsesChildArea(t *testing.T) {
	assert.InDelta(t, 80.0, AreaPercent(rec(1, 2, 40, 1000, 50)), 1e-9)
	assert.InDelta(t, 4.0, AreaPercent(rec(2, 1, 40, 50, 1000)), 1e-9)
}

// 小面整嵌在大面里：小面视角 80%，大面视角 4%——任一方向达标即为有意嵌套
func TestClassifyGenuineWhenEitherDirectionHigh(t *testing.T) {
	records := []geom.OverlapRecord{
		rec(1, 2, 40, 1000, 50),
		rec(2, 1, 40, 50, 1000),
	}
	cls := Classify(records, 5)
	require.Len(t, cls, 1)
	assert.Equal(t, GenuineOverlap, cls[PairKey(1, 2)])
}

// 两个相邻大面的细条重叠：双向都远低于阈值，判定为绘制误差
func TestClassifyArtifactWhenBothDirectionsLow(t *testing.T) {
	records := []geom.OverlapRecord{
		rec(3, 4, 20, 500, 600),
		rec(4, 3, 20, 600, 500),
	}
	cls := Classify(records, 5)
	require.Len(t, cls, 1)
	assert.Equal(t, ArtifactOverlap, cls[PairKey(3, 4)])
}

// 阈值边界：>= 判有意，< 判误差
func TestClassifyThresholdBoundary(t *testing.T) {
	exactly := []geom.OverlapRecord{rec(1, 2, 5, 1000, 100)}
	cls := Classify(exactly, 5)
	assert.Equal(t, GenuineOverlap, cls[PairKey(1, 2)])

	below := []geom.OverlapRecord{rec(1, 2, 4.999, 1000, 100)}
	cls = Classify(below, 5)
	assert.Equal(t, ArtifactOverlap, cls[PairKey(1, 2)])
}

// 有意判定具有粘性：后到的低占比方向不能把已判有意的对改回误差
func TestClassifyGenuineSticky(t *testing.T) {
	forward := []geom.OverlapRecord{
		rec(1, 2, 40, 1000, 50),
		rec(2, 1, 40, 50, 1000),
	}
	backward := []geom.OverlapRecord{
		rec(2, 1, 40, 50, 1000),
		rec(1, 2, 40, 1000, 50),
	}
	assert.Equal(t, Classify(forward, 5), Classify(backward, 5))
}

func TestPruneDropsReflexive(t *testing.T) {
	records := []geom.OverlapRecord{
		rec(1, 1, 100, 100, 100),
		rec(1, 2, 10, 100, 200),
		rec(2, 2, 200, 200, 200),
		rec(2, 1, 10, 200, 100),
	}
	pruned := Prune(records)
	require.Len(t, pruned, 2)
	for _, r := range pruned {
		assert.NotEqual(t, r.ParentFID, r.ChildFID)
	}
}
