package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"llur-overlap/internal/overlap"

	"github.com/stretchr/testify/assert"
)

func TestParseThresholdDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/resolve?layer=sites", nil)
	assert.Equal(t, 5.0, parseThreshold(r))

	r = httptest.NewRequest(http.MethodPost, "/resolve?threshold=2.5", nil)
	assert.Equal(t, 2.5, parseThreshold(r))

	r = httptest.NewRequest(http.MethodPost, "/resolve?threshold=abc", nil)
	assert.Equal(t, 5.0, parseThreshold(r))
}

// 错误映射：输入错误 400，一致性错误 409，其余 500
func TestWriteErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &overlap.InputValidationError{Layer: "sites", FID: 1, Msg: "non-positive area"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	writeError(rec, &overlap.ConsistencyError{Layer: "sites", PairKey: "000001000002", Msg: "no classification"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	writeError(rec, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"owner", "status"}, splitCSV("owner, status,"))
	assert.Nil(t, splitCSV(""))
}
