package geom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geos"
)

func square(t *testing.T, fid int, biz string, x, y, w float64) Feature {
	t.Helper()
	gj := fmt.Sprintf(`{"type":"Polygon","coordinates":[[[%[1]f,%[2]f],[%[3]f,%[2]f],[%[3]f,%[4]f],[%[1]f,%[4]f],[%[1]f,%[2]f]]]}`,
		x, y, x+w, y+w)
	g, err := Parse(gj)
	require.NoError(t, err)
	return Feature{FID: fid, BizID: biz, Area: Area(g), Geom: g}
}

func TestParseRejectsEmptyGeometry(t *testing.T) {
	_, err := Parse(`{"type":"Polygon","coordinates":[]}`)
	assert.Error(t, err)
}

// 自叠加形态：自反对 + 每个真实重叠对的双向记录
func TestIntersectSelfShape(t *testing.T) {
	features := []Feature{
		square(t, 1, "A", 0, 0, 10),
		square(t, 2, "B", 8, 0, 10),
		square(t, 3, "C", 100, 100, 10),
	}
	defer DestroyFeatures(features)

	records := IntersectSelf(features)
	defer DestroyRecords(records)

	// 3 条自反 + A/B 双向 2 条；C 孤立
	require.Len(t, records, 5)
	reflexive := 0
	for _, r := range records {
		if r.ParentFID == r.ChildFID {
			reflexive++
			assert.InDelta(t, r.ParentArea, r.IntersectionArea, 1e-9)
			continue
		}
		assert.InDelta(t, 20.0, r.IntersectionArea, 1e-6)
	}
	assert.Equal(t, 3, reflexive)
}

func TestEraseRecomputesAreaAndDropsEmpty(t *testing.T) {
	features := []Feature{
		square(t, 1, "A", 0, 0, 10),
		square(t, 2, "B", 50, 50, 2),
	}
	defer DestroyFeatures(features)

	hole := square(t, 9, "H", 0, 0, 5)
	gone := square(t, 8, "G", 50, 50, 2)
	defer DestroyFeatures([]Feature{hole, gone})

	out := Erase(features, []*geos.Geom{hole.Geom, gone.Geom})
	defer DestroyFeatures(out)

	// B 被整块擦除，A 扣掉 25
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].FID)
	assert.InDelta(t, 75.0, out[0].Area, 1e-6)
}
