package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFC = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"site_no": "S1", "owner": "council"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}
    },
    {
      "type": "Feature",
      "properties": {"site_no": "S2"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[20,0],[30,0],[30,10],[20,10],[20,0]]]]}
    }
  ]
}`

func TestDecodeFeatures(t *testing.T) {
	rows, err := DecodeFeatures(strings.NewReader(sampleFC))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// fid 按出现顺序从 1 起
	assert.Equal(t, 1, rows[0].FID)
	assert.Equal(t, 2, rows[1].FID)
	assert.Contains(t, string(rows[0].Props), `"site_no":"S1"`)
	assert.Contains(t, string(rows[0].Geom), `"Polygon"`)
	assert.Contains(t, string(rows[1].Geom), `"MultiPolygon"`)
}

// 非面类要素整体报错而非静默跳过
func TestDecodeFeaturesRejectsNonPolygon(t *testing.T) {
	fc := `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1,2]}}
  ]
}`
	_, err := DecodeFeatures(strings.NewReader(fc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestDecodeFeaturesBadPayload(t *testing.T) {
	_, err := DecodeFeatures(strings.NewReader("not json"))
	assert.Error(t, err)
}
