package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arenahq/arena/pkg/corpus"
	"github.com/arenahq/arena/pkg/database"
	"github.com/arenahq/arena/pkg/hints"
	"github.com/arenahq/arena/pkg/judge"
	"github.com/arenahq/arena/pkg/llmproxy"
	"github.com/arenahq/arena/pkg/retrieval"
	"github.com/arenahq/arena/pkg/scoring"
)

type testHarness struct {
	server   *Server
	router   http.Handler
	store    *database.Store
	issuer   *TokenIssuer
	judgeSrv *httptest.Server
}

func writeJSONFixture(t *testing.T, path string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

// newTestHarness wires a full Server over an in-memory store and a tiny
// on-disk corpus fixture, with the judge client pointed at a controllable
// fake sandbox server.
func newTestHarness(t *testing.T, judgeHandler http.HandlerFunc) *testHarness {
	t.Helper()
	dir := t.TempDir()

	writeJSONFixture(t, filepath.Join(dir, "problems.json"), map[string]corpus.ProblemRecord{
		"p1": {Name: "Add Two Numbers", Description: "sum two integers", ProblemLevel: "bronze", RuntimeLimitS: 1, MemoryLimitMB: 256,
			Samples: []corpus.SampleIO{{Input: "1 2", Output: "3"}}},
	})
	problems, err := corpus.NewProblemLoader(filepath.Join(dir, "problems.json"), dir)
	require.NoError(t, err)

	caseDir := filepath.Join(dir, "p1")
	require.NoError(t, os.MkdirAll(caseDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(caseDir, "1.in"), []byte("1 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(caseDir, "1.out"), []byte("3\n"), 0o644))

	writeJSONFixture(t, filepath.Join(dir, "textbook.json"), []corpus.Article{
		{ID: "a1", Title: "Arithmetic", Content: "basic integer addition"},
	})
	textbook, err := corpus.LoadTextbook(filepath.Join(dir, "textbook.json"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "strategy.txt"), []byte("read constraints first"), 0o644))
	strategy, err := corpus.LoadStrategyDoc(filepath.Join(dir, "strategy.txt"))
	require.NoError(t, err)

	writeJSONFixture(t, filepath.Join(dir, "guide.json"), map[string][]corpus.GuideEntry{
		"bronze": {{Concept: "addition", Explanation: "add the two numbers", Difficulty: "easy"}},
	})
	guide, err := corpus.LoadGuide(filepath.Join(dir, "guide.json"))
	require.NoError(t, err)

	problemsIndex, err := retrieval.ProblemsIndex(problems.ProblemIDs(nil), problems.LoadProblem)
	require.NoError(t, err)
	articlesIndex := retrieval.ArticlesIndex(textbook.Articles)

	client, err := database.NewClient(context.Background(), database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	store := database.NewStore(client)
	engine := scoring.NewEngine(store)
	hintsSvc := hints.NewService(engine, problems, textbook, strategy, guide, problemsIndex, articlesIndex)
	llm := llmproxy.NewProxy(engine)

	var judgeSrv *httptest.Server
	if judgeHandler != nil {
		judgeSrv = httptest.NewServer(judgeHandler)
		t.Cleanup(judgeSrv.Close)
	} else {
		judgeSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"execute":{"stdout":"3\n","verdict":"accepted","wall_time":"0.01","memory_usage":"1024"}}`))
		}))
		t.Cleanup(judgeSrv.Close)
	}
	judgeClient := judge.NewClient(judge.Config{Endpoint: judgeSrv.URL})

	srv, err := NewServer(Deps{
		Store:           store,
		Engine:          engine,
		Judge:           judgeClient,
		Problems:        problems,
		Hints:           hintsSvc,
		LLM:             llm,
		TokenSecret:     "test-secret",
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
	})
	require.NoError(t, err)

	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)

	return &testHarness{server: srv, router: srv.Router(), store: store, issuer: issuer, judgeSrv: judgeSrv}
}

func (h *testHarness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func drainParticipantTokens(t *testing.T, h *testHarness, competitionID, participantID string) {
	t.Helper()
	_, err := h.store.DB().ExecContext(context.Background(),
		`UPDATE participants SET remaining_tokens = 0 WHERE id = ? AND competition_id = ?`, participantID, competitionID)
	require.NoError(t, err)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
