package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayerSpecs(t *testing.T) {
	specs := parseLayerSpecs("sites:site_no, activities:hail_no")
	require.Len(t, specs, 2)
	assert.Equal(t, layerSpec{layer: "sites", idField: "site_no"}, specs[0])
	assert.Equal(t, layerSpec{layer: "activities", idField: "hail_no"}, specs[1])
}

func TestParseLayerSpecsSkipsMalformed(t *testing.T) {
	specs := parseLayerSpecs("sites, :x, sites:, activities:hail_no")
	require.Len(t, specs, 1)
	assert.Equal(t, "activities", specs[0].layer)
}

func TestParseLayerSpecsEmpty(t *testing.T) {
	assert.Empty(t, parseLayerSpecs(""))
}

func TestNextDailyAtFuture(t *testing.T) {
	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	next := nextDailyAt(loc, 2)
	now := time.Now().In(loc)
	assert.True(t, next.After(now))
	assert.Equal(t, 2, next.Hour())
	assert.True(t, next.Sub(now) <= 24*time.Hour)
}
