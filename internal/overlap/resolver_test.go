package overlap

import (
	"fmt"
	"testing"

	"llur-overlap/internal/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// square：以 (x,y) 为左下角、边长 w 的正方形要素
func square(t *testing.T, fid int, biz string, x, y, w float64) geom.Feature {
	t.Helper()
	gj := fmt.Sprintf(`{"type":"Polygon","coordinates":[[[%[1]f,%[2]f],[%[3]f,%[2]f],[%[3]f,%[4]f],[%[1]f,%[4]f],[%[1]f,%[2]f]]]}`,
		x, y, x+w, y+w)
	g, err := geom.Parse(gj)
	require.NoError(t, err)
	return geom.Feature{FID: fid, BizID: biz, Area: geom.Area(g), Geom: g}
}

// 场景：大面 1 内嵌小面 2（有意嵌套），相邻面 3 与 1 有细条误差重叠
func TestResolvePipeline(t *testing.T) {
	features := []geom.Feature{
		square(t, 1, "S1", 0, 0, 20),
		square(t, 2, "S2", 2, 2, 4),
		square(t, 3, "S3", 19.9, 0, 20),
	}
	defer geom.DestroyFeatures(features)

	kept, cleaned, cls, err := resolvePipeline(features, 5, "sites")
	require.NoError(t, err)
	defer geom.DestroyRecords(kept)
	defer geom.DestroyFeatures(cleaned)

	require.Len(t, cls, 2)
	assert.Equal(t, GenuineOverlap, cls[PairKey(1, 2)])
	assert.Equal(t, ArtifactOverlap, cls[PairKey(1, 3)])

	// 问题集只剩误差对（双向两条），有意嵌套对被删除
	require.Len(t, kept, 2)
	for _, r := range kept {
		assert.Equal(t, PairKey(1, 3), PairKey(r.ParentFID, r.ChildFID))
		assert.InDelta(t, 2.0, r.IntersectionArea, 1e-6)
	}

	// 干净图层：误差覆盖范围从两侧擦除，嵌套区域保持原样
	require.Len(t, cleaned, 3)
	byFID := map[int]geom.Feature{}
	for _, f := range cleaned {
		byFID[f.FID] = f
	}
	assert.InDelta(t, 398.0, byFID[1].Area, 1e-6)
	assert.InDelta(t, 16.0, byFID[2].Area, 1e-6)
	assert.InDelta(t, 398.0, byFID[3].Area, 1e-6)
}

// 仅误差重叠的输入跑两遍结果一致
func TestResolvePipelineIdempotentOnCleanOutput(t *testing.T) {
	features := []geom.Feature{
		square(t, 1, "S1", 0, 0, 20),
		square(t, 3, "S3", 19.9, 0, 20),
	}
	defer geom.DestroyFeatures(features)

	_, cleaned, _, err := resolvePipeline(features, 5, "sites")
	require.NoError(t, err)
	defer geom.DestroyFeatures(cleaned)

	kept2, cleaned2, cls2, err := resolvePipeline(cleaned, 5, "sites")
	require.NoError(t, err)
	defer geom.DestroyRecords(kept2)
	defer geom.DestroyFeatures(cleaned2)

	assert.Empty(t, kept2)
	assert.Empty(t, cls2)
	require.Len(t, cleaned2, len(cleaned))
	for i := range cleaned {
		assert.InDelta(t, cleaned[i].Area, cleaned2[i].Area, 1e-9)
	}
}
