// Package hints implements the five-level hint system of spec.md §4.6: a
// strategy document, textbook sections ranked against keywords from the
// problem description, a knowledge-focused textbook slice, BM25-retrieved
// similar problems, and a difficulty-tiered
// worked-example guide. Every hint is gated by pkg/scoring's token budget
// check before any content is assembled.
package hints

import (
	"context"
	"strconv"
	"strings"

	"github.com/arenahq/arena/pkg/corpus"
	"github.com/arenahq/arena/pkg/models"
	"github.com/arenahq/arena/pkg/retrieval"
	"github.com/arenahq/arena/pkg/scoring"
)

// hintContentMaxChars bounds every piece of quoted corpus text in a hint
// response (§4.6: "truncated content ≤300 chars").
const hintContentMaxChars = 300

// similarProblemsCount is the number of matches level 3 returns (§4.6
// "top-2").
const similarProblemsCount = 2

// guideExplanationPrefixChars bounds how much of a guide entry's
// explanation feeds the level-4 BM25 ranking ("explanation prefix").
const guideExplanationPrefixChars = 160

// TextbookMatch is one ranked textbook section returned by hint levels 1
// and 2.
type TextbookMatch struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SimilarProblemMatch is one ranked problem returned by hint level 3.
type SimilarProblemMatch struct {
	ProblemID   string `json:"problem_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
}

// GuideMatch is the single best-matching worked example returned by hint
// level 4.
type GuideMatch struct {
	Concept     string  `json:"concept"`
	Explanation string  `json:"explanation"`
	Score       float64 `json:"score"`
}

// Hint is the structured response returned to a participant's
// POST /hints/get/... call. Only the fields relevant to the requested
// level are populated.
type Hint struct {
	Level           models.HintLevel      `json:"level"`
	Title           string                `json:"title"`
	Content         string                `json:"content,omitempty"`
	TextbookMatches []TextbookMatch       `json:"textbook_matches,omitempty"`
	SimilarProblems []SimilarProblemMatch `json:"similar_problems,omitempty"`
	GuideMatch      *GuideMatch           `json:"guide_match,omitempty"`
}

// Service assembles hint content and applies its token cost through the
// scoring engine.
type Service struct {
	engine        *scoring.Engine
	problems      *corpus.ProblemLoader
	textbook      *corpus.TextbookCorpus
	strategy      *corpus.StrategyDoc
	guide         *corpus.GuideCorpus
	problemsIndex *retrieval.Index
	articlesIndex *retrieval.Index
}

// NewService builds a Service over the given corpora. problemsIndex and
// articlesIndex should be built once at startup via retrieval.ProblemsIndex
// and retrieval.ArticlesIndex.
func NewService(engine *scoring.Engine, problems *corpus.ProblemLoader, textbook *corpus.TextbookCorpus, strategy *corpus.StrategyDoc, guide *corpus.GuideCorpus, problemsIndex, articlesIndex *retrieval.Index) *Service {
	return &Service{
		engine:        engine,
		problems:      problems,
		textbook:      textbook,
		strategy:      strategy,
		guide:         guide,
		problemsIndex: problemsIndex,
		articlesIndex: articlesIndex,
	}
}

// algorithmicVocabulary is the fixed term list used to focus a problem
// description down to the handful of keywords that matter for level-1
// textbook retrieval. Free-text extraction is deliberately avoided: a
// closed vocabulary keeps the hint deterministic and cheap.
var algorithmicVocabulary = []string{
	"dynamic programming", "dp", "greedy", "graph", "tree", "bfs", "dfs",
	"binary search", "two pointers", "sliding window", "segment tree",
	"fenwick", "union find", "disjoint set", "prefix sum", "combinatorics",
	"number theory", "modular arithmetic", "string matching", "sorting",
	"simulation", "backtracking", "recursion", "divide and conquer",
	"shortest path", "minimum spanning tree", "topological sort",
	"bitmask", "math", "geometry",
}

func extractKeywords(description string) []string {
	lower := strings.ToLower(description)
	var found []string
	for _, term := range algorithmicVocabulary {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// Get assembles the hint content for level and debits its cost through the
// scoring engine. hintKnowledge and problemDifficulty are caller-supplied
// inputs required by levels 2 and 4 respectively (§4.6); they are ignored
// by the other levels. competitionProblemIDs excludes every problem
// registered in the competition, including the asking problem itself, from
// level 3's similar-problem suggestions. It returns the updated
// participant alongside the hint so callers can report the new
// remaining_tokens without a second round trip.
func (s *Service) Get(ctx context.Context, competitionID, participantID, problemID string, level models.HintLevel, hintKnowledge, problemDifficulty string, rules models.Rules, competitionProblemIDs []string) (Hint, models.Participant, error) {
	if !level.Valid() {
		return Hint{}, models.Participant{}, scoring.NewValidationError("level", "must be between 0 and 4")
	}
	if level == models.HintFocusedTextbook && strings.TrimSpace(hintKnowledge) == "" {
		return Hint{}, models.Participant{}, scoring.NewValidationError("hint_knowledge", "required for hint level 2")
	}
	if level == models.HintGuideLookup {
		if strings.TrimSpace(hintKnowledge) == "" {
			return Hint{}, models.Participant{}, scoring.NewValidationError("hint_knowledge", "required for hint level 4")
		}
		if !corpus.ValidDifficulty(problemDifficulty) {
			return Hint{}, models.Participant{}, scoring.NewValidationError("problem_difficulty", "must be one of bronze, silver, gold, platinum, advanced")
		}
	}

	p, err := s.engine.RecordHint(ctx, competitionID, participantID, level, rules)
	if err != nil {
		return Hint{}, models.Participant{}, err
	}

	var hint Hint
	switch level {
	case models.HintStrategy:
		hint = s.strategyHint()
	case models.HintTextbook:
		problem, err := s.problems.LoadProblem(problemID)
		if err != nil {
			return Hint{}, p, err
		}
		hint = s.textbookHint(problem)
	case models.HintFocusedTextbook:
		hint = s.focusedTextbookHint(hintKnowledge)
	case models.HintSimilarProblems:
		if _, err := s.problems.LoadProblem(problemID); err != nil {
			return Hint{}, p, err
		}
		hint = s.similarProblemsHint(problemID, competitionProblemIDs)
	case models.HintGuideLookup:
		hint = s.guideLookupHint(problemDifficulty, hintKnowledge)
	}
	hint.Level = level
	return hint, p, nil
}

func (s *Service) strategyHint() Hint {
	return Hint{Title: "Competitive programming strategy", Content: s.strategy.Content}
}

// textbookHint builds its query from the problem description: the fixed
// algorithmic vocabulary intersected with the description, falling back to
// the whole description when nothing matches (§4.6 level 1).
func (s *Service) textbookHint(problem corpus.ProblemRecord) Hint {
	keywords := extractKeywords(problem.Description)
	query := strings.Join(keywords, " ")
	if query == "" {
		query = problem.Description
	}
	return Hint{Title: "Textbook sections", TextbookMatches: s.searchTextbook(query)}
}

// focusedTextbookHint scores the textbook against the caller-supplied
// hint_knowledge query (§4.6 level 2).
func (s *Service) focusedTextbookHint(hintKnowledge string) Hint {
	return Hint{Title: "Focused textbook sections", TextbookMatches: s.searchTextbook(hintKnowledge)}
}

func (s *Service) searchTextbook(query string) []TextbookMatch {
	matches := s.articlesIndex.Search(query, 3)
	out := make([]TextbookMatch, 0, len(matches))
	for _, m := range matches {
		for _, a := range s.textbook.Articles {
			if a.ID == m.ID {
				out = append(out, TextbookMatch{
					Title:   a.Title,
					Content: truncate(a.Content, hintContentMaxChars),
					Score:   m.Score,
				})
				break
			}
		}
	}
	return out
}

// similarProblemsHint returns the top-2 problems most similar to
// problemID, excluding every problem registered in this competition
// (which includes the asking problem) so a participant is only ever
// pointed at problems outside their own contest (§4.6 level 3).
func (s *Service) similarProblemsHint(problemID string, competitionProblemIDs []string) Hint {
	exclude := make(map[string]bool, len(competitionProblemIDs))
	for _, id := range competitionProblemIDs {
		exclude[id] = true
	}
	matches := s.problemsIndex.Similar(problemID, similarProblemsCount, exclude)

	out := make([]SimilarProblemMatch, 0, len(matches))
	for _, m := range matches {
		rec, err := s.problems.LoadProblem(m.ID)
		if err != nil {
			continue
		}
		solution, _ := s.problems.LoadSolution(m.ID)
		out = append(out, SimilarProblemMatch{
			ProblemID:   m.ID,
			Title:       rec.Name,
			Description: truncate(rec.Description, hintContentMaxChars),
			Solution:    truncate(solution, hintContentMaxChars),
		})
	}
	return Hint{Title: "Similar problems", SimilarProblems: out}
}

// guideLookupHint ranks the example entries under problemDifficulty by
// BM25 over concept name plus an explanation prefix, scored against
// hintKnowledge, and returns only the single best match (§4.6 level 4).
func (s *Service) guideLookupHint(problemDifficulty, hintKnowledge string) Hint {
	entries := s.guide.ForDifficulty(problemDifficulty)
	if len(entries) == 0 {
		return Hint{Title: "Worked-example guide"}
	}

	docs := make([]retrieval.Document, len(entries))
	for i, e := range entries {
		docs[i] = retrieval.Document{
			ID:   strconv.Itoa(i),
			Text: e.Concept + " " + truncate(e.Explanation, guideExplanationPrefixChars),
		}
	}
	idx := retrieval.NewIndex(docs)

	matches := idx.Search(hintKnowledge, 1)
	if len(matches) == 0 {
		best := entries[0]
		return Hint{Title: "Worked-example guide", GuideMatch: &GuideMatch{Concept: best.Concept, Explanation: best.Explanation}}
	}

	i, _ := strconv.Atoi(matches[0].ID)
	best := entries[i]
	return Hint{
		Title:      "Worked-example guide",
		GuideMatch: &GuideMatch{Concept: best.Concept, Explanation: best.Explanation, Score: matches[0].Score},
	}
}
