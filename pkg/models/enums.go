// Package models defines the data types shared across the arena: problems,
// competitions, participants, submissions and the closed enumerations that
// classify them.
package models

// Level is a problem's difficulty tier.
type Level string

// Recognized difficulty levels. Unknown levels default to LevelBronze.
const (
	LevelBronze   Level = "bronze"
	LevelSilver   Level = "silver"
	LevelGold     Level = "gold"
	LevelPlatinum Level = "platinum"
)

// ParseLevel normalizes a free-form string to a known Level, defaulting to
// LevelBronze for anything unrecognized (per spec.md §4.1).
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelBronze, LevelSilver, LevelGold, LevelPlatinum:
		return Level(s)
	default:
		return LevelBronze
	}
}

// Verdict is the classification of a submission or a single test case.
type Verdict string

// Recognized verdicts.
const (
	VerdictAC      Verdict = "AC"
	VerdictWA      Verdict = "WA"
	VerdictRE      Verdict = "RE"
	VerdictCE      Verdict = "CE"
	VerdictTLE     Verdict = "TLE"
	VerdictMLE     Verdict = "MLE"
	VerdictPending Verdict = "PENDING"
)

// TerminationReason is the fixed vocabulary recorded when a participant
// transitions to terminated.
type TerminationReason string

// Recognized termination reasons.
const (
	ReasonOutOfTokens          TerminationReason = "out_of_tokens"
	ReasonManualTermination    TerminationReason = "manual_termination"
	ReasonCompetitorTerminated TerminationReason = "competitor_terminated"
	ReasonAllProblemsSolved    TerminationReason = "all_problems_solved"
	ReasonError                TerminationReason = "error"
	ReasonTimeout              TerminationReason = "timeout"
)

// HintLevel selects between the five hint strategies (§4.6).
type HintLevel int

// Recognized hint levels.
const (
	HintStrategy         HintLevel = 0
	HintTextbook         HintLevel = 1
	HintFocusedTextbook  HintLevel = 2
	HintSimilarProblems  HintLevel = 3
	HintGuideLookup      HintLevel = 4
)

// Valid reports whether l is one of the five recognized hint levels.
func (l HintLevel) Valid() bool {
	return l >= HintStrategy && l <= HintGuideLookup
}

// RulesKey renders the hint level as the key used to look up
// rules.hint_tokens (e.g. "level_3").
func (l HintLevel) RulesKey() string {
	switch l {
	case HintStrategy:
		return "level_0"
	case HintTextbook:
		return "level_1"
	case HintFocusedTextbook:
		return "level_2"
	case HintSimilarProblems:
		return "level_3"
	case HintGuideLookup:
		return "level_4"
	default:
		return ""
	}
}
