package hints

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenahq/arena/pkg/corpus"
	"github.com/arenahq/arena/pkg/database"
	"github.com/arenahq/arena/pkg/models"
	"github.com/arenahq/arena/pkg/retrieval"
	"github.com/arenahq/arena/pkg/scoring"
)

func testRules() models.Rules {
	return models.Rules{
		Scoring:    map[models.Level]int{models.LevelBronze: 100},
		HintTokens: map[string]int{"level_0": 10, "level_1": 20, "level_2": 30, "level_3": 40, "level_4": 50},
	}
}

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func newTestService(t *testing.T) (*Service, *database.Store, string, string) {
	t.Helper()
	dir := t.TempDir()

	dictPath := writeJSON(t, dir, "problems.json", map[string]corpus.ProblemRecord{
		"p1": {Name: "Two Sum", Description: "a graph shortest path problem", ProblemLevel: "bronze", Solution: "use a hashmap"},
		"p2": {Name: "Minimum Spanning Tree", Description: "a graph minimum spanning tree problem", ProblemLevel: "bronze", Solution: "use kruskal"},
		"p3": {Name: "String Search", Description: "a string matching problem", ProblemLevel: "silver", Solution: "use KMP"},
	})
	problems, err := corpus.NewProblemLoader(dictPath, dir)
	require.NoError(t, err)

	textbookPath := writeJSON(t, dir, "textbook.json", []corpus.Article{
		{ID: "a1", Title: "Graph", Content: "BFS and DFS graph traversal basics."},
		{ID: "a2", Title: "Sorting", Content: "Comparison sorts and their complexity."},
	})
	textbook, err := corpus.LoadTextbook(textbookPath)
	require.NoError(t, err)

	strategyPath := filepath.Join(dir, "strategy.txt")
	require.NoError(t, os.WriteFile(strategyPath, []byte("read constraints before coding"), 0o644))
	strategy, err := corpus.LoadStrategyDoc(strategyPath)
	require.NoError(t, err)

	guidePath := writeJSON(t, dir, "guide.json", map[string][]corpus.GuideEntry{
		"bronze": {{Concept: "hashmap", Explanation: "O(1) average lookup", Difficulty: "easy"}},
	})
	guide, err := corpus.LoadGuide(guidePath)
	require.NoError(t, err)

	problemsIndex, err := retrieval.ProblemsIndex(problems.ProblemIDs(nil), problems.LoadProblem)
	require.NoError(t, err)
	articlesIndex := retrieval.ArticlesIndex(textbook.Articles)

	client, err := database.NewClient(context.Background(), database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	store := database.NewStore(client)
	engine := scoring.NewEngine(store)

	ctx := context.Background()
	competitionID := uuid.NewString()
	require.NoError(t, store.CreateCompetition(ctx, models.Competition{
		ID: competitionID, Title: "t", StartedAt: time.Now(), MaxTokensPerParticipant: 1000, IsActive: true,
	}))
	participantID := uuid.NewString()
	require.NoError(t, store.CreateParticipant(ctx, models.Participant{
		ID: participantID, CompetitionID: competitionID, LimitTokens: 1000, RemainingTokens: 1000,
	}))

	svc := NewService(engine, problems, textbook, strategy, guide, problemsIndex, articlesIndex)
	return svc, store, competitionID, participantID
}

func TestGetRejectsInvalidLevel(t *testing.T) {
	svc, _, compID, partID := newTestService(t)
	_, _, err := svc.Get(context.Background(), compID, partID, "p1", models.HintLevel(99), "", "", testRules(), nil)
	assert.Error(t, err)
}

func TestGetStrategyHintReturnsContentAndDebits(t *testing.T) {
	svc, _, compID, partID := newTestService(t)
	hint, p, err := svc.Get(context.Background(), compID, partID, "p1", models.HintStrategy, "", "", testRules(), nil)
	require.NoError(t, err)
	assert.Equal(t, "read constraints before coding", hint.Content)
	assert.Equal(t, 990, p.RemainingTokens)
}

func TestGetTextbookHintRanksAgainstDescriptionKeywords(t *testing.T) {
	svc, _, compID, partID := newTestService(t)
	hint, _, err := svc.Get(context.Background(), compID, partID, "p1", models.HintTextbook, "", "", testRules(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, hint.TextbookMatches)
	assert.Equal(t, "Graph", hint.TextbookMatches[0].Title)
	assert.LessOrEqual(t, len(hint.TextbookMatches[0].Content), hintContentMaxChars)
	assert.Greater(t, hint.TextbookMatches[0].Score, 0.0)
	assert.LessOrEqual(t, len(hint.TextbookMatches), 3)
}

func TestGetFocusedTextbookHintRequiresHintKnowledge(t *testing.T) {
	svc, _, compID, partID := newTestService(t)
	_, _, err := svc.Get(context.Background(), compID, partID, "p1", models.HintFocusedTextbook, "", "", testRules(), nil)
	assert.Error(t, err)
}

func TestGetFocusedTextbookHintUsesCallerQuery(t *testing.T) {
	svc, _, compID, partID := newTestService(t)
	hint, _, err := svc.Get(context.Background(), compID, partID, "p1", models.HintFocusedTextbook, "sorting comparison", "", testRules(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, hint.TextbookMatches)
	assert.Equal(t, "Sorting", hint.TextbookMatches[0].Title)
}

func TestGetSimilarProblemsExcludesCompetitionProblems(t *testing.T) {
	svc, _, compID, partID := newTestService(t)
	hint, _, err := svc.Get(context.Background(), compID, partID, "p1", models.HintSimilarProblems, "", "", testRules(), []string{"p1", "p2"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hint.SimilarProblems), similarProblemsCount)
	for _, m := range hint.SimilarProblems {
		assert.NotEqual(t, "p1", m.ProblemID)
		assert.NotEqual(t, "p2", m.ProblemID)
		assert.NotEmpty(t, m.Title)
	}
}

func TestGetGuideLookupHintRequiresKnowledgeAndDifficulty(t *testing.T) {
	svc, _, compID, partID := newTestService(t)
	_, _, err := svc.Get(context.Background(), compID, partID, "p1", models.HintGuideLookup, "", "", testRules(), nil)
	assert.Error(t, err)

	_, _, err = svc.Get(context.Background(), compID, partID, "p1", models.HintGuideLookup, "lookup fast", "diamond", testRules(), nil)
	assert.Error(t, err)
}

func TestGetGuideLookupHintReturnsBestMatch(t *testing.T) {
	svc, _, compID, partID := newTestService(t)
	hint, _, err := svc.Get(context.Background(), compID, partID, "p1", models.HintGuideLookup, "hashmap lookup", "bronze", testRules(), nil)
	require.NoError(t, err)
	require.NotNil(t, hint.GuideMatch)
	assert.Equal(t, "hashmap", hint.GuideMatch.Concept)
}

func TestGetFailsBudgetBeforeAssemblingContent(t *testing.T) {
	svc, store, compID, partID := newTestService(t)
	// drain the participant's budget down to less than the cheapest hint.
	_, err := store.DB().ExecContext(context.Background(),
		`UPDATE participants SET remaining_tokens = 1 WHERE id = ? AND competition_id = ?`, partID, compID)
	require.NoError(t, err)

	_, _, err = svc.Get(context.Background(), compID, partID, "p1", models.HintGuideLookup, "hashmap lookup", "bronze", testRules(), nil)
	assert.Error(t, err)
}

func TestGetValidatesBeforeDebiting(t *testing.T) {
	svc, store, compID, partID := newTestService(t)
	_, _, err := svc.Get(context.Background(), compID, partID, "p1", models.HintFocusedTextbook, "", "", testRules(), nil)
	assert.Error(t, err)

	var remaining int
	row := store.DB().QueryRowContext(context.Background(),
		`SELECT remaining_tokens FROM participants WHERE id = ? AND competition_id = ?`, partID, compID)
	require.NoError(t, row.Scan(&remaining))
	assert.Equal(t, 1000, remaining)
}
