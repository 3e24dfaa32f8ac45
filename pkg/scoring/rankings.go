package scoring

import (
	"context"
	"database/sql"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/arenahq/arena/pkg/database"
	"github.com/arenahq/arena/pkg/models"
)

// RankedParticipant is one row of a rankings response (§4.7).
type RankedParticipant struct {
	models.Participant
	Rank int `json:"rank"`
}

const (
	rankingsMaxRetries  = 3
	rankingsBaseBackoff = 500 * time.Millisecond
)

// Rankings recomputes every participant's derived score (SQL
// UPDATE ... SET score = ...) and returns them ordered by score desc,
// problem_pass_score desc, with a dense rank (§4.7). Recompute is retried
// with exponential backoff on a transient write conflict, per §5's note on
// concurrent UPDATEs to participants.score.
func (e *Engine) Rankings(ctx context.Context, competitionID string) ([]RankedParticipant, error) {
	var lastErr error
	for attempt := 0; attempt < rankingsMaxRetries; attempt++ {
		err := e.withTx(ctx, func(tx *sql.Tx) error {
			return database.RecomputeScoresTx(ctx, tx, competitionID)
		})
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		if !isTransientConflict(err) {
			return nil, err
		}
		backoff := rankingsBaseBackoff * time.Duration(1<<attempt)
		jitter := time.Duration(rand.Int64N(int64(50 * time.Millisecond)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	participants, err := e.store.ListParticipants(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].Score != participants[j].Score {
			return participants[i].Score > participants[j].Score
		}
		return participants[i].ProblemPassScore > participants[j].ProblemPassScore
	})

	out := make([]RankedParticipant, 0, len(participants))
	rank := 0
	var prevScore, prevPass int
	havePrev := false
	for _, p := range participants {
		if !havePrev || p.Score != prevScore || p.ProblemPassScore != prevPass {
			rank++
		}
		out = append(out, RankedParticipant{Participant: p, Rank: rank})
		prevScore, prevPass, havePrev = p.Score, p.ProblemPassScore, true
	}
	return out, nil
}

// SolvedProblems returns the problem IDs this participant has solved
// (supplemental aggregation for GET /participants/.../{id}, see
// SPEC_FULL.md "Supplemented features" #3).
func (e *Engine) SolvedProblems(ctx context.Context, competitionID, participantID string) ([]string, error) {
	return e.store.SolvedProblemIDs(ctx, competitionID, participantID)
}

// isTransientConflict reports whether err looks like a SQLite busy/locked
// write conflict. modernc.org/sqlite surfaces these as plain errors with no
// typed sentinel to errors.Is against, so a substring match is the
// pragmatic option (mirrors how the teacher's worker.go distinguishes
// ErrNoSessionsAvailable from hard errors by sentinel, adapted here since
// the driver gives us a string instead).
func isTransientConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}
