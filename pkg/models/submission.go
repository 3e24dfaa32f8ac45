package models

import "time"

// TestResult is the outcome of running a submission against one test case.
type TestResult struct {
	CaseID   string  `json:"case_id"`
	Verdict  Verdict `json:"verdict"`
	RuntimeMS int    `json:"runtime_ms"`
	MemoryKB  int    `json:"memory_kb"`
	Stdout    string `json:"stdout,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Submission is one append-only attempt by a participant at a problem.
type Submission struct {
	ID               string       `json:"id"`
	CompetitionID    string       `json:"competition_id"`
	ParticipantID    string       `json:"participant_id"`
	ProblemID        string       `json:"problem_id"`
	SourceCode       string       `json:"source_code"`
	Language         string       `json:"language"`
	SubmittedAt      time.Time    `json:"submitted_at"`
	Verdict          Verdict      `json:"verdict"`
	PassScore        int          `json:"pass_score"`
	Penalty          int          `json:"penalty"`
	SubmissionTokens int          `json:"submission_tokens"`
	Tests            []TestResult `json:"tests"`
	Feedback         string       `json:"feedback"`
}

// Accepted reports whether this submission's verdict is AC.
func (s Submission) Accepted() bool {
	return s.Verdict == VerdictAC
}
