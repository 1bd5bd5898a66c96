package overlap

import (
	"testing"

	"llur-overlap/internal/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterDropsGenuineKeepsArtifact(t *testing.T) {
	records := []geom.OverlapRecord{
		rec(1, 2, 40, 1000, 50),
		rec(2, 1, 40, 50, 1000),
		rec(3, 4, 20, 500, 600),
		rec(4, 3, 20, 600, 500),
	}
	cls := Classify(records, 5)
	kept, err := Filter(records, cls, "sites")
	require.NoError(t, err)
	require.Len(t, kept, 2)
	for _, r := range kept {
		assert.Equal(t, PairKey(3, 4), PairKey(r.ParentFID, r.ChildFID))
	}
}

// 幂等：对已过滤的问题集再跑一遍分类+过滤，结果不变
// 背景：留下的全是双向低占比记录，第二遍没有可删除的有意对
func TestFilterIdempotent(t *testing.T) {
	records := []geom.OverlapRecord{
		rec(1, 2, 40, 1000, 50),
		rec(2, 1, 40, 50, 1000),
		rec(3, 4, 20, 500, 600),
		rec(4, 3, 20, 600, 500),
	}
	cls := Classify(records, 5)
	kept, err := Filter(records, cls, "sites")
	require.NoError(t, err)

	cls2 := Classify(kept, 5)
	kept2, err := Filter(kept, cls2, "sites")
	require.NoError(t, err)
	assert.Equal(t, kept, kept2)
}

// 记录缺少判定即为上游两步记录集不一致，必须整体失败而非跳过
func TestFilterMissingClassificationFatal(t *testing.T) {
	records := []geom.OverlapRecord{rec(7, 8, 10, 100, 100)}
	kept, err := Filter(records, map[string]Classification{}, "activities")
	require.Error(t, err)
	assert.Nil(t, kept)
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "activities", ce.Layer)
	assert.Equal(t, PairKey(7, 8), ce.PairKey)
}
