package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAcceptedDebitsTokensAndAwardsScore(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, token := createTestParticipant(t, h, comp["id"].(string), "alice")

	path := "/submissions/create/" + comp["id"].(string) + "/" + participant["id"].(string)
	w := h.do(t, http.MethodPost, path, token, map[string]any{
		"problem_id":  "p1",
		"source_code": "print(3)",
		"language":    "python3",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "AC", data["verdict"])
	assert.Greater(t, data["pass_score"], float64(0))

	p := data["participant"].(map[string]any)
	assert.Less(t, p["remaining_tokens"], float64(1000))
	assert.Greater(t, p["score"], float64(0))
}

func TestSubmitUnknownProblemReturns404(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, token := createTestParticipant(t, h, comp["id"].(string), "alice")

	path := "/submissions/create/" + comp["id"].(string) + "/" + participant["id"].(string)
	w := h.do(t, http.MethodPost, path, token, map[string]any{
		"problem_id":  "does-not-exist",
		"source_code": "print(3)",
		"language":    "python3",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitRequiresAuth(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, _ := createTestParticipant(t, h, comp["id"].(string), "alice")

	path := "/submissions/create/" + comp["id"].(string) + "/" + participant["id"].(string)
	w := h.do(t, http.MethodPost, path, "", map[string]any{
		"problem_id":  "p1",
		"source_code": "print(3)",
		"language":    "python3",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitWrongAnswerAppliesPenaltyNotBonus(t *testing.T) {
	h := newTestHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"execute":{"stdout":"99\n","verdict":"","wall_time":"0.01","memory_usage":"1024"}}`))
	})
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, token := createTestParticipant(t, h, comp["id"].(string), "alice")

	path := "/submissions/create/" + comp["id"].(string) + "/" + participant["id"].(string)
	w := h.do(t, http.MethodPost, path, token, map[string]any{
		"problem_id":  "p1",
		"source_code": "print(99)",
		"language":    "python3",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "WA", data["verdict"])
	assert.Equal(t, float64(0), data["pass_score"])
	// Default rules: 0 pass score - 5 WA penalty + 100*950/1000 token bonus.
	p := data["participant"].(map[string]any)
	assert.Equal(t, float64(90), p["score"])
}
