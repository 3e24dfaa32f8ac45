// Package scoring implements the per-participant token economy and scoring
// engine (spec.md §4.5) — the ordering spine of the arena. Every public
// method here runs as a single transaction, matching the teacher's
// services package convention of wrapping a whole business operation in
// one ent/sql transaction rather than several independent statements.
package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/arenahq/arena/pkg/database"
	"github.com/arenahq/arena/pkg/models"
)

// Engine applies §4.5's three events (LLM call finished, hint issued,
// submission evaluated) against the store.
type Engine struct {
	store *database.Store
}

// NewEngine constructs an Engine over store.
func NewEngine(store *database.Store) *Engine {
	return &Engine{store: store}
}

type bucket string

const (
	bucketLLM        bucket = "llm"
	bucketHint       bucket = "hint"
	bucketSubmission bucket = "submission"
)

// applyDebit folds amount into the participant's bucket counter, clamps
// remaining_tokens at a non-negative floor, and terminates the participant
// with out_of_tokens if the raw post-subtraction remainder is at or below
// zero (§4.5 steps 3-5). amount is never itself clamped — only the stored
// remaining_tokens is (I1: "using the 0-clamped remaining; if debits
// exceeded the budget, the overflow is ignored").
func applyDebit(p *models.Participant, b bucket, amount int) {
	switch b {
	case bucketLLM:
		p.LLMTokens += amount
	case bucketHint:
		p.HintTokens += amount
	case bucketSubmission:
		p.SubmissionTokens += amount
	}

	newRemaining := p.RemainingTokens - amount
	if newRemaining <= 0 {
		p.RemainingTokens = 0
		if p.IsRunning {
			p.IsRunning = false
			p.TerminationReason = models.ReasonOutOfTokens
		}
	} else {
		p.RemainingTokens = newRemaining
	}
	p.Score = p.DerivedScore()
}

// truncToward0 rounds x toward zero, per §4.5 step 2 ("Round toward zero").
func truncToward0(x float64) int {
	return int(math.Trunc(x))
}

// loadActive loads the participant and competition inside tx and returns an
// error if either is missing, the competition has ended (I6), or the
// participant is already terminated (I5). Both checks are shared by every
// write path in this engine.
func loadActive(ctx context.Context, tx *sql.Tx, competitionID, participantID string) (models.Participant, error) {
	ended, err := database.CompetitionEndedTx(ctx, tx, competitionID)
	if err != nil {
		return models.Participant{}, err
	}
	if ended {
		return models.Participant{}, ErrCompetitionEnded
	}

	p, err := database.GetParticipantTx(ctx, tx, competitionID, participantID)
	if err != nil {
		if err == database.ErrNotFound {
			return models.Participant{}, ErrNotFound
		}
		return models.Participant{}, err
	}
	if !p.IsRunning {
		return models.Participant{}, ErrTerminated
	}
	return p, nil
}

// RecordLLMCall applies the token debit for one completed LLM call (§4.8
// step 5, §4.5 "LLM call finished"). reasoningTokens is folded into
// completionTokens before the output multiplier is applied.
func (e *Engine) RecordLLMCall(ctx context.Context, competitionID, participantID, model string, promptTokens, completionTokens, reasoningTokens int, rules models.Rules) (models.Participant, error) {
	var result models.Participant
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		p, err := loadActive(ctx, tx, competitionID, participantID)
		if err != nil {
			return err
		}

		completion := completionTokens + reasoningTokens
		inputDebit := truncToward0(float64(promptTokens) * rules.InputMultiplier(model))
		outputDebit := truncToward0(float64(completion) * rules.OutputMultiplier(model))

		applyDebit(&p, bucketLLM, inputDebit+outputDebit)

		if err := database.UpdateParticipantTx(ctx, tx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	return result, err
}

// RecordHint debits the cost of a hint at level, failing with a
// *BudgetError and no mutation if the participant cannot afford it (§4.6).
func (e *Engine) RecordHint(ctx context.Context, competitionID, participantID string, level models.HintLevel, rules models.Rules) (models.Participant, error) {
	var result models.Participant
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		p, err := loadActive(ctx, tx, competitionID, participantID)
		if err != nil {
			return err
		}

		cost := rules.HintCost(level)
		if cost > p.RemainingTokens {
			return NewBudgetError(cost, p.RemainingTokens)
		}

		applyDebit(&p, bucketHint, cost)

		if err := database.UpdateParticipantTx(ctx, tx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	return result, err
}

// RecordSubmission finalizes a judged submission: arbitrates first-AC,
// computes the Δ contribution to problem_pass_score, debits submission
// tokens, and checks for all-problems-solved termination — all inside one
// transaction (§4.5 "First-AC arbitration... MUST occur within the same
// transaction as the submission insert").
//
// sub must already carry Verdict, Tests, Feedback, SourceCode, Language,
// SubmittedAt and a generated ID. PassScore, Penalty and SubmissionTokens
// are computed here and written back onto the returned copy.
func (e *Engine) RecordSubmission(ctx context.Context, competitionID, participantID, problemID string, sub models.Submission, baseScoreIfAC int, rules models.Rules) (models.Submission, models.Participant, error) {
	var (
		resultSub models.Submission
		resultP   models.Participant
	)
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		p, err := loadActive(ctx, tx, competitionID, participantID)
		if err != nil {
			return err
		}

		previousBest, _, err := database.BestPassScoreTx(ctx, tx, competitionID, participantID, problemID)
		if err != nil {
			return err
		}

		passScore := 0
		if sub.Verdict == models.VerdictAC {
			wonFirst, err := database.ClaimFirstToSolve(ctx, tx, competitionID, problemID, participantID)
			if err != nil {
				return err
			}
			passScore = baseScoreIfAC
			if wonFirst {
				passScore += rules.BonusForFirstAC
			}
		}

		sub.PassScore = passScore
		sub.Penalty = rules.Penalty(sub.Verdict)
		sub.SubmissionTokens = rules.SubmissionCost(sub.Verdict)

		if err := database.InsertSubmissionTx(ctx, tx, sub); err != nil {
			return err
		}

		delta := passScore - previousBest
		if delta < 0 {
			delta = 0
		}

		p.SubmissionCount++
		if sub.Verdict == models.VerdictAC {
			p.AcceptedCount++
		}
		p.SubmissionPenalty += sub.Penalty
		p.ProblemPassScore += delta

		applyDebit(&p, bucketSubmission, sub.SubmissionTokens)

		if p.IsRunning && sub.Verdict == models.VerdictAC {
			total, err := database.ProblemCountTx(ctx, tx, competitionID)
			if err != nil {
				return err
			}
			solved, err := database.SolvedProblemCountTx(ctx, tx, competitionID, participantID)
			if err != nil {
				return err
			}
			if total > 0 && solved >= total {
				p.IsRunning = false
				p.TerminationReason = models.ReasonAllProblemsSolved
			}
		}
		p.Score = p.DerivedScore()

		if err := database.UpdateParticipantTx(ctx, tx, p); err != nil {
			return err
		}

		resultSub = sub
		resultP = p
		return nil
	})
	return resultSub, resultP, err
}

// Terminate transitions a participant to terminated for any reason other
// than out_of_tokens / all_problems_solved, which are set inline by the
// events above. Used for operator-initiated termination, explicit
// TERMINATE actions, and driver-level errors (§4.5 state machine).
func (e *Engine) Terminate(ctx context.Context, competitionID, participantID string, reason models.TerminationReason) (models.Participant, error) {
	var result models.Participant
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		p, err := database.GetParticipantTx(ctx, tx, competitionID, participantID)
		if err != nil {
			if err == database.ErrNotFound {
				return ErrNotFound
			}
			return err
		}
		if !p.IsRunning {
			return ErrTerminated
		}
		p.IsRunning = false
		p.TerminationReason = reason
		if err := database.UpdateParticipantTx(ctx, tx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	return result, err
}

// withTx runs fn inside a new transaction, committing on success and
// rolling back on any error (§4.5 "Any failure to update aggregates MUST
// abort the enclosing transaction").
func (e *Engine) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
