package models

import "time"

// Competition is the top-level entity an operator creates: a problem set, a
// token budget per participant, and a rules object (spec.md §3).
type Competition struct {
	ID                      string     `json:"id"`
	Title                   string     `json:"title"`
	Description             string     `json:"description"`
	StartedAt               time.Time  `json:"started_at"`
	EndedAt                 *time.Time `json:"ended_at,omitempty"`
	MaxTokensPerParticipant int        `json:"max_tokens_per_participant"`
	Rules                   Rules      `json:"rules"`
	IsActive                bool       `json:"is_active"`
	ParticipantCount        int        `json:"participant_count"`
	ProblemCount            int        `json:"problem_count"`
}

// Ended reports whether the competition's end has been declared (I6: once
// declared, no participant's state may change).
func (c Competition) Ended() bool {
	return c.EndedAt != nil
}
