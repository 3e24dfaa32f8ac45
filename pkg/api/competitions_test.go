package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCompetition(t *testing.T, h *testHarness, problemIDs []string) map[string]any {
	t.Helper()
	w := h.do(t, http.MethodPost, "/competitions/create", "", map[string]any{
		"title":                      "Winter Classic",
		"description":                "a test competition",
		"problem_ids":                problemIDs,
		"max_tokens_per_participant": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	return data["competition"].(map[string]any)
}

func TestCreateCompetitionRegistersKnownProblems(t *testing.T) {
	h := newTestHarness(t, nil)

	w := h.do(t, http.MethodPost, "/competitions/create", "", map[string]any{
		"title":                      "Winter Classic",
		"problem_ids":                []string{"p1", "does-not-exist"},
		"max_tokens_per_participant": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	comp := data["competition"].(map[string]any)
	assert.Equal(t, float64(1), comp["problem_count"])
	notFound := data["not_found_problems"].([]any)
	require.Len(t, notFound, 1)
	assert.Equal(t, "does-not-exist", notFound[0])
}

func TestCreateCompetitionRejectsMissingTitle(t *testing.T) {
	h := newTestHarness(t, nil)

	w := h.do(t, http.MethodPost, "/competitions/create", "", map[string]any{
		"problem_ids":                []string{"p1"},
		"max_tokens_per_participant": 1000,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCompetitionReturnsRegisteredProblems(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})

	w := h.do(t, http.MethodGet, "/competitions/"+comp["id"].(string), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	problems := body["problems"].([]any)
	require.Len(t, problems, 1)
}

func TestGetCompetitionNotFoundReturns404(t *testing.T) {
	h := newTestHarness(t, nil)
	w := h.do(t, http.MethodGet, "/competitions/comp-missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndCompetitionMarksCompetitionInactive(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	compID := comp["id"].(string)

	w := h.do(t, http.MethodPost, "/competitions/"+compID+"/end", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w2 := h.do(t, http.MethodGet, "/competitions/"+compID, "", nil)
	require.Equal(t, http.StatusOK, w2.Code)
	body := decodeBody(t, w2)
	assert.Equal(t, false, body["is_active"])
}

func TestListCompetitionsFiltersByActiveQueryParam(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	endW := h.do(t, http.MethodPost, "/competitions/"+comp["id"].(string)+"/end", "", nil)
	require.Equal(t, http.StatusOK, endW.Code)

	w := h.do(t, http.MethodGet, "/competitions?active=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Empty(t, body["data"])
}
