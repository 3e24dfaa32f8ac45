package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestParticipant(t *testing.T, h *testHarness, competitionID, name string) (map[string]any, string) {
	t.Helper()
	w := h.do(t, http.MethodPost, "/participants/create/"+competitionID, "", map[string]any{
		"name":         name,
		"llm_endpoint": "http://unused",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	return data["participant"].(map[string]any), data["token"].(string)
}

func TestCreateParticipantIssuesTokenOnce(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, token := createTestParticipant(t, h, comp["id"].(string), "alice")

	assert.NotEmpty(t, participant["id"])
	assert.NotEmpty(t, token)
	assert.Equal(t, true, participant["is_running"])
}

func TestCreateParticipantUnknownCompetitionReturns404(t *testing.T) {
	h := newTestHarness(t, nil)
	w := h.do(t, http.MethodPost, "/participants/create/comp-missing", "", map[string]any{
		"name":         "alice",
		"llm_endpoint": "http://unused",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetParticipantRequiresAuth(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, _ := createTestParticipant(t, h, comp["id"].(string), "alice")

	w := h.do(t, http.MethodGet, "/participants/"+comp["id"].(string)+"/"+participant["id"].(string), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetParticipantWithValidToken(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, token := createTestParticipant(t, h, comp["id"].(string), "alice")

	w := h.do(t, http.MethodGet, "/participants/"+comp["id"].(string)+"/"+participant["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, participant["id"], body["id"])
}

func TestTerminateCannotForgeSystemReasons(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, token := createTestParticipant(t, h, comp["id"].(string), "alice")
	path := "/participants/terminate/" + comp["id"].(string) + "/" + participant["id"].(string)

	w := h.do(t, http.MethodPost, path, token, map[string]any{"reason": "out_of_tokens"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "manual_termination", data["termination_reason"])
}

func TestTerminateAcceptsKnownClientReason(t *testing.T) {
	h := newTestHarness(t, nil)
	comp := createTestCompetition(t, h, []string{"p1"})
	participant, token := createTestParticipant(t, h, comp["id"].(string), "alice")
	path := "/participants/terminate/" + comp["id"].(string) + "/" + participant["id"].(string)

	w := h.do(t, http.MethodPost, path, token, map[string]any{"reason": "error"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "error", data["termination_reason"])
}
