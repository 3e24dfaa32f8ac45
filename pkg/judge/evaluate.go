package judge

import (
	"context"
	"fmt"

	"github.com/arenahq/arena/pkg/models"
)

// Result is the outcome of judging a submission against every test case of
// a problem: the overall verdict (the first non-AC verdict encountered, or
// AC if every case passed), the per-case results, and a short feedback
// summary suitable for returning to the agent (SPEC_FULL.md supplemented
// feature #1).
type Result struct {
	Verdict models.Verdict
	Tests   []models.TestResult
	Feedback string
}

// Evaluate runs code against every case, short-circuiting the remaining
// cases only on a compile error (a CE recurs identically on every case
// since it never reaches execution). Any other failing verdict does not
// stop evaluation — every case still runs so the feedback summary can
// report e.g. "3/10 passed".
func (c *Client) Evaluate(ctx context.Context, code, language string, problem models.Problem, cases []models.Case) (Result, error) {
	if len(cases) == 0 {
		return Result{}, fmt.Errorf("judge: no test cases for problem %s", problem.ID)
	}

	memLimitKB := problem.MemoryLimitMB * 1024
	tests := make([]models.TestResult, 0, len(cases))
	overall := models.VerdictAC
	passed := 0

	for _, tc := range cases {
		res, err := c.runOne(ctx, tc.ID, code, language, string(tc.Input), string(tc.ExpectedOutput), problem.TimeLimitMS, memLimitKB)
		if err != nil {
			res = models.TestResult{
				CaseID:  tc.ID,
				Verdict: models.VerdictCE,
				Error:   err.Error(),
			}
		}
		tests = append(tests, res)

		if res.Verdict == models.VerdictAC {
			passed++
		} else if overall == models.VerdictAC {
			overall = res.Verdict
		}

		if res.Verdict == models.VerdictCE {
			break
		}
	}

	feedback := summarize(overall, passed, len(tests), len(cases), tests)
	return Result{Verdict: overall, Tests: tests, Feedback: feedback}, nil
}

func summarize(overall models.Verdict, passed, ran, total int, tests []models.TestResult) string {
	if overall == models.VerdictAC {
		return fmt.Sprintf("Accepted: %d/%d test cases passed.", passed, total)
	}
	if overall == models.VerdictCE {
		msg := "compilation failed"
		if len(tests) > 0 && tests[0].Error != "" {
			msg = tests[0].Error
		}
		return fmt.Sprintf("Compile error: %s", msg)
	}

	var firstFailure models.TestResult
	for _, t := range tests {
		if t.Verdict != models.VerdictAC {
			firstFailure = t
			break
		}
	}
	return fmt.Sprintf("%s on case %s (%d/%d passed).", string(overall), firstFailure.CaseID, passed, ran)
}
