// Package corpus loads the static problem dictionary, textbook corpus,
// strategy document and guide corpus from disk (spec.md §4.1, §6). Every
// loader here is read-only: nothing in this package ever writes back to the
// dataset files.
package corpus

import (
	"strconv"

	"github.com/arenahq/arena/pkg/models"
)

// ProblemRecord is one entry of the problem dictionary, not yet scoped to a
// competition (that happens when an operator registers it via
// POST /competitions/create). Mirrors the dataset layout in spec.md §6.
type ProblemRecord struct {
	ID             string       `json:"-"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	ProblemLevel   string       `json:"problem_level"`
	RuntimeLimitS  float64      `json:"runtime_limit"`
	MemoryLimitMB  int          `json:"memory_limit"`
	Samples        []SampleIO   `json:"samples"`
	Solution       string       `json:"solution"`
}

// SampleIO is one sample input/output pair shown to agents.
type SampleIO struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Level returns the record's difficulty as a normalized models.Level,
// defaulting to bronze for unknown strings (spec.md §4.1).
func (r ProblemRecord) Level() models.Level {
	return models.ParseLevel(r.ProblemLevel)
}

// ToProblem converts a dictionary record into a models.Problem scoped to
// competitionID, with sample cases materialized as models.Case values.
func (r ProblemRecord) ToProblem(competitionID string) models.Problem {
	samples := make([]models.Case, len(r.Samples))
	for i, s := range r.Samples {
		samples[i] = models.Case{
			ID:             r.ID + "_sample_" + strconv.Itoa(i),
			Input:          []byte(s.Input),
			ExpectedOutput: []byte(s.Output),
		}
	}
	return models.Problem{
		ID:            r.ID,
		CompetitionID: competitionID,
		Title:         r.Name,
		Description:   r.Description,
		Level:         r.Level(),
		TimeLimitMS:   int(r.RuntimeLimitS * 1000),
		MemoryLimitMB: r.MemoryLimitMB,
		Samples:       samples,
	}
}

// Article is one textbook section or guide concept entry indexed by
// pkg/retrieval.
type Article struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GuideEntry is one example-problems entry under a difficulty tier in the
// guide corpus (§4.6 level 4).
type GuideEntry struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
	Difficulty  string `json:"difficulty"`
}
