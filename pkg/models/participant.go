package models

// Participant is one registered agent competing in a Competition
// (spec.md §3). Token and scoring counters are maintained by pkg/scoring
// under transactional control; nothing outside that package should mutate
// them directly.
type Participant struct {
	ID            string `json:"id"`
	CompetitionID string `json:"competition_id"`
	Name          string `json:"name"`

	// LLMEndpoint and LLMKey are opaque to the arena core; they are only
	// ever used by pkg/llmproxy to reach the participant's configured
	// provider.
	LLMEndpoint string `json:"llm_endpoint"`
	LLMKey      string `json:"-"`

	LimitTokens     int     `json:"limit_tokens"`
	RemainingTokens int     `json:"remaining_tokens"`
	LambdaValue     int     `json:"lambda_value"`

	LLMTokens        int `json:"llm_tokens"`
	HintTokens       int `json:"hint_tokens"`
	SubmissionTokens int `json:"submission_tokens"`

	SubmissionCount    int `json:"submission_count"`
	AcceptedCount      int `json:"accepted_count"`
	SubmissionPenalty  int `json:"submission_penalty"`
	ProblemPassScore   int `json:"problem_pass_score"`
	Score              int `json:"score"`

	IsRunning         bool               `json:"is_running"`
	TerminationReason TerminationReason  `json:"termination_reason,omitempty"`
}

// DerivedScore recomputes score = problem_pass_score - submission_penalty +
// lambda * remaining/limit, per spec.md §4.5. limit of 0 is treated as an
// empty budget (no bonus term, avoids a division by zero).
func (p Participant) DerivedScore() int {
	score := p.ProblemPassScore - p.SubmissionPenalty
	if p.LimitTokens > 0 {
		bonus := float64(p.LambdaValue) * float64(p.RemainingTokens) / float64(p.LimitTokens)
		score += int(bonus)
	}
	return score
}

// Terminated reports whether this participant may no longer act (I5).
func (p Participant) Terminated() bool {
	return !p.IsRunning
}
