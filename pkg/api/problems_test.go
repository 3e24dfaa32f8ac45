package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProblemExposesSamplesNotHiddenData(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})

	w := h.do(t, http.MethodGet, "/problems/"+comp["id"].(string)+"/p1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Add Two Numbers", body["title"])
	samples := body["samples"].([]any)
	require.Len(t, samples, 1)
	sample := samples[0].(map[string]any)
	assert.Equal(t, "1 2", sample["input"])
	assert.Equal(t, "3", sample["output"])

	_, hasSolution := body["solution"]
	assert.False(t, hasSolution)
}

func TestGetProblemNotFoundReturns404(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})

	w := h.do(t, http.MethodGet, "/problems/"+comp["id"].(string)+"/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
