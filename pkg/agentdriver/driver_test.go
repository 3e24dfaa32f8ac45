package agentdriver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapHistoryKeepsSystemPromptAndTrimsTail(t *testing.T) {
	d := &Driver{cfg: Config{MaxTurns: 2}}
	d.history = []goopenai.ChatCompletionMessage{{Role: goopenai.ChatMessageRoleSystem, Content: "system"}}
	for i := 0; i < 10; i++ {
		d.history = append(d.history, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: "msg"})
	}

	d.capHistory()
	assert.LessOrEqual(t, len(d.history), d.cfg.MaxTurns*2+1)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, d.history[0].Role)
	assert.Equal(t, "system", d.history[0].Content)
}

func TestCapHistoryNoopWhenUnderLimit(t *testing.T) {
	d := &Driver{cfg: Config{MaxTurns: 50}}
	d.history = []goopenai.ChatCompletionMessage{{Role: goopenai.ChatMessageRoleSystem, Content: "system"}}
	d.history = append(d.history, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: "msg"})

	d.capHistory()
	assert.Len(t, d.history, 2)
}

func newFakeLLM(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := goopenai.ChatCompletionResponse{
			Choices: []goopenai.ChatCompletionChoice{
				{Message: goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newDriverWithLLM(llmURL string) *Driver {
	return New(Config{
		APIBaseURL:    "http://unused",
		ParticipantID: "p1",
		CompetitionID: "c1",
		LLMEndpoint:   llmURL,
		LLMKey:        "test-key",
		Model:         "gpt-4",
		MaxTurns:      5,
	})
}

func TestNextActionParsesEmbeddedJSON(t *testing.T) {
	srv := newFakeLLM(t, "Sure, here's my move:\n{\"action\": \"view_rankings\"}\nlet me know how it goes")
	defer srv.Close()

	d := newDriverWithLLM(srv.URL)
	action, err := d.nextAction(context.Background(), participantView{RemainingTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "view_rankings", action.Action)
}

func TestNextActionFailsWithoutJSONBlock(t *testing.T) {
	srv := newFakeLLM(t, "I am thinking about this problem.")
	defer srv.Close()

	d := newDriverWithLLM(srv.URL)
	_, err := d.nextAction(context.Background(), participantView{})
	assert.Error(t, err)
}

func TestNextActionFailsWithMissingActionField(t *testing.T) {
	srv := newFakeLLM(t, `{"problem_id": "p1"}`)
	defer srv.Close()

	d := newDriverWithLLM(srv.URL)
	_, err := d.nextAction(context.Background(), participantView{})
	assert.Error(t, err)
}

func TestExecuteUnknownActionDoesNotTerminate(t *testing.T) {
	d := newDriverWithLLM("http://unused")
	result, terminated := d.execute(context.Background(), agentAction{Action: "fly_to_the_moon"})
	assert.False(t, terminated)
	assert.Contains(t, result, "unknown action")
}

func TestExecuteTerminateDefaultsReason(t *testing.T) {
	mux := http.NewServeMux()
	var gotReason string
	mux.HandleFunc("/participants/terminate/c1/p1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotReason, _ = body["reason"].(string)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := New(Config{APIBaseURL: srv.URL, ParticipantID: "p1", CompetitionID: "c1"})
	result, terminated := d.execute(context.Background(), agentAction{Action: "terminate"})
	assert.True(t, terminated)
	assert.Equal(t, "manual_termination", gotReason)
	assert.Contains(t, result, "terminated")
}

func TestSystemPromptMentionsCompetitionTitle(t *testing.T) {
	prompt := systemPrompt(competitionView{Title: "Winter Classic"})
	assert.Contains(t, prompt, "Winter Classic")
	assert.Contains(t, prompt, "submission_solution")
}
