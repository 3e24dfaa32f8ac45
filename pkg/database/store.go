package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arenahq/arena/pkg/models"
)

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("not found")

// Store is the repository over the four tables described in spec.md §4.4.
// Every exported method that mutates state does so inside a single
// transaction, per §4.4 "every mutating operation MUST be a single
// transaction."
type Store struct {
	db *sql.DB
}

// NewStore wraps client's connection in a Store.
func NewStore(client *Client) *Store {
	return &Store{db: client.db}
}

// Querier is satisfied by both *sql.DB and *sql.Tx, letting read helpers be
// shared between top-level calls and calls made inside a caller's
// transaction (pkg/scoring needs this for the read-modify-write sequences
// in §4.5).
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DB exposes the raw connection for packages (pkg/scoring) that need to
// begin their own transactions spanning multiple Store calls.
func (s *Store) DB() *sql.DB { return s.db }

// ---- competitions ----------------------------------------------------

// CreateCompetition inserts a new competition row.
func (s *Store) CreateCompetition(ctx context.Context, c models.Competition) error {
	rulesJSON, err := json.Marshal(c.Rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO competitions (id, title, description, started_at, max_tokens_per_participant, rules_json, is_active, participant_count, problem_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		c.ID, c.Title, c.Description, c.StartedAt, c.MaxTokensPerParticipant, string(rulesJSON), boolToInt(c.IsActive))
	if err != nil {
		return fmt.Errorf("insert competition: %w", err)
	}
	return nil
}

// GetCompetition loads a competition by ID.
func (s *Store) GetCompetition(ctx context.Context, id string) (models.Competition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, started_at, ended_at, max_tokens_per_participant, rules_json, is_active, participant_count, problem_count
		FROM competitions WHERE id = ?`, id)
	return scanCompetition(row)
}

// ListCompetitions returns all competitions, optionally filtered by active
// status.
func (s *Store) ListCompetitions(ctx context.Context, activeOnly *bool) ([]models.Competition, error) {
	query := `SELECT id, title, description, started_at, ended_at, max_tokens_per_participant, rules_json, is_active, participant_count, problem_count FROM competitions`
	var args []any
	if activeOnly != nil {
		query += ` WHERE is_active = ?`
		args = append(args, boolToInt(*activeOnly))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	defer rows.Close()

	var out []models.Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// IncrementParticipantCount bumps competitions.participant_count by one.
func (s *Store) IncrementParticipantCount(ctx context.Context, competitionID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE competitions SET participant_count = participant_count + 1 WHERE id = ?`, competitionID)
	return err
}

// IncrementProblemCount bumps competitions.problem_count by one.
func (s *Store) IncrementProblemCount(ctx context.Context, competitionID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE competitions SET problem_count = problem_count + 1 WHERE id = ?`, competitionID)
	return err
}

// EndCompetition declares the competition over (I6). Idempotent.
func (s *Store) EndCompetition(ctx context.Context, id string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `UPDATE competitions SET ended_at = ?, is_active = 0 WHERE id = ? AND ended_at IS NULL`, now, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompetition(row rowScanner) (models.Competition, error) {
	var c models.Competition
	var desc sql.NullString
	var endedAt sql.NullTime
	var rulesJSON string
	var isActive int
	err := row.Scan(&c.ID, &c.Title, &desc, &c.StartedAt, &endedAt, &c.MaxTokensPerParticipant, &rulesJSON, &isActive, &c.ParticipantCount, &c.ProblemCount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Competition{}, ErrNotFound
	}
	if err != nil {
		return models.Competition{}, fmt.Errorf("scan competition: %w", err)
	}
	c.Description = desc.String
	if endedAt.Valid {
		t := endedAt.Time
		c.EndedAt = &t
	}
	c.IsActive = isActive != 0
	if err := json.Unmarshal([]byte(rulesJSON), &c.Rules); err != nil {
		return models.Competition{}, fmt.Errorf("unmarshal rules: %w", err)
	}
	return c, nil
}

// ---- problems ----------------------------------------------------------

// CreateProblem inserts a problem scoped to a competition.
func (s *Store) CreateProblem(ctx context.Context, p models.Problem) error {
	samplesJSON, err := json.Marshal(p.Samples)
	if err != nil {
		return fmt.Errorf("marshal samples: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO problems (id, competition_id, title, description, level, time_limit_ms, memory_limit_mb, samples_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompetitionID, p.Title, p.Description, string(p.Level), p.TimeLimitMS, p.MemoryLimitMB, string(samplesJSON))
	if err != nil {
		return fmt.Errorf("insert problem: %w", err)
	}
	return nil
}

// GetProblem loads a problem by (id, competitionID).
func (s *Store) GetProblem(ctx context.Context, competitionID, problemID string) (models.Problem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, competition_id, title, description, level, time_limit_ms, memory_limit_mb, first_to_solve, samples_json
		FROM problems WHERE id = ? AND competition_id = ?`, problemID, competitionID)
	return scanProblem(row)
}

// ListProblems returns every problem belonging to a competition.
func (s *Store) ListProblems(ctx context.Context, competitionID string) ([]models.Problem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, competition_id, title, description, level, time_limit_ms, memory_limit_mb, first_to_solve, samples_json
		FROM problems WHERE competition_id = ?`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer rows.Close()

	var out []models.Problem
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProblem(row rowScanner) (models.Problem, error) {
	var p models.Problem
	var desc sql.NullString
	var level string
	var firstToSolve sql.NullString
	var samplesJSON string
	err := row.Scan(&p.ID, &p.CompetitionID, &p.Title, &desc, &level, &p.TimeLimitMS, &p.MemoryLimitMB, &firstToSolve, &samplesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Problem{}, ErrNotFound
	}
	if err != nil {
		return models.Problem{}, fmt.Errorf("scan problem: %w", err)
	}
	p.Description = desc.String
	p.Level = models.Level(level)
	p.FirstToSolve = firstToSolve.String
	if err := json.Unmarshal([]byte(samplesJSON), &p.Samples); err != nil {
		return models.Problem{}, fmt.Errorf("unmarshal samples: %w", err)
	}
	return p, nil
}

// ClaimFirstToSolve sets problems.first_to_solve to participantID iff it is
// currently unset, inside tx. Returns true iff this call won the race (I3).
// Callers MUST run this inside the same transaction as the submission
// insert (§4.5 "First-AC arbitration").
func ClaimFirstToSolve(ctx context.Context, tx *sql.Tx, competitionID, problemID, participantID string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE problems SET first_to_solve = ?
		WHERE id = ? AND competition_id = ? AND first_to_solve IS NULL`,
		participantID, problemID, competitionID)
	if err != nil {
		return false, fmt.Errorf("claim first-to-solve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ---- participants --------------------------------------------------------

// CreateParticipant inserts a new participant with full initial budget.
func (s *Store) CreateParticipant(ctx context.Context, p models.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, competition_id, name, llm_endpoint, llm_key, limit_tokens, remaining_tokens, lambda_value, is_running)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		p.ID, p.CompetitionID, p.Name, p.LLMEndpoint, p.LLMKey, p.LimitTokens, p.RemainingTokens, p.LambdaValue)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// GetParticipant loads a participant by (competitionID, id).
func (s *Store) GetParticipant(ctx context.Context, competitionID, id string) (models.Participant, error) {
	row := s.db.QueryRowContext(ctx, participantSelect+` WHERE competition_id = ? AND id = ?`, competitionID, id)
	return scanParticipant(row)
}

// GetParticipantTx is GetParticipant scoped to an existing transaction, used
// by pkg/scoring's read-modify-write sequences (§4.5).
func GetParticipantTx(ctx context.Context, tx *sql.Tx, competitionID, id string) (models.Participant, error) {
	row := tx.QueryRowContext(ctx, participantSelect+` WHERE competition_id = ? AND id = ?`, competitionID, id)
	return scanParticipant(row)
}

// ListParticipants returns every participant in a competition.
func (s *Store) ListParticipants(ctx context.Context, competitionID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, participantSelect+` WHERE competition_id = ?`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const participantSelect = `
	SELECT id, competition_id, name, llm_endpoint, llm_key, limit_tokens, remaining_tokens, lambda_value,
	       llm_tokens, hint_tokens, submission_tokens, submission_count, accepted_count,
	       submission_penalty, problem_pass_score, score, is_running, termination_reason
	FROM participants`

func scanParticipant(row rowScanner) (models.Participant, error) {
	var p models.Participant
	var isRunning int
	var reason string
	err := row.Scan(&p.ID, &p.CompetitionID, &p.Name, &p.LLMEndpoint, &p.LLMKey, &p.LimitTokens, &p.RemainingTokens, &p.LambdaValue,
		&p.LLMTokens, &p.HintTokens, &p.SubmissionTokens, &p.SubmissionCount, &p.AcceptedCount,
		&p.SubmissionPenalty, &p.ProblemPassScore, &p.Score, &isRunning, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrNotFound
	}
	if err != nil {
		return models.Participant{}, fmt.Errorf("scan participant: %w", err)
	}
	p.IsRunning = isRunning != 0
	p.TerminationReason = models.TerminationReason(reason)
	return p, nil
}

// UpdateParticipantTx persists the full mutable state of p inside tx. Used
// by pkg/scoring after it has computed every derived counter for an event.
func UpdateParticipantTx(ctx context.Context, tx *sql.Tx, p models.Participant) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE participants SET
			remaining_tokens = ?, llm_tokens = ?, hint_tokens = ?, submission_tokens = ?,
			submission_count = ?, accepted_count = ?, submission_penalty = ?, problem_pass_score = ?,
			score = ?, is_running = ?, termination_reason = ?
		WHERE id = ? AND competition_id = ?`,
		p.RemainingTokens, p.LLMTokens, p.HintTokens, p.SubmissionTokens,
		p.SubmissionCount, p.AcceptedCount, p.SubmissionPenalty, p.ProblemPassScore,
		p.Score, boolToInt(p.IsRunning), string(p.TerminationReason),
		p.ID, p.CompetitionID)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	return nil
}

// RecomputeScoresTx recomputes the derived score column for every
// participant in a competition, per §4.7 rankings endpoint. Runs an
// optimistic retry by the caller on conflict (see pkg/scoring.Rankings).
func RecomputeScoresTx(ctx context.Context, tx *sql.Tx, competitionID string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, limit_tokens, remaining_tokens, lambda_value, problem_pass_score, submission_penalty FROM participants WHERE competition_id = ?`, competitionID)
	if err != nil {
		return fmt.Errorf("select for recompute: %w", err)
	}
	type row struct {
		id                                 string
		limitTokens, remainingTokens       int
		lambda, passScore, penalty         int
	}
	var toUpdate []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.limitTokens, &r.remainingTokens, &r.lambda, &r.passScore, &r.penalty); err != nil {
			rows.Close()
			return fmt.Errorf("scan for recompute: %w", err)
		}
		toUpdate = append(toUpdate, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, r := range toUpdate {
		score := r.passScore - r.penalty
		if r.limitTokens > 0 {
			score += int(float64(r.lambda) * float64(r.remainingTokens) / float64(r.limitTokens))
		}
		if _, err := tx.ExecContext(ctx, `UPDATE participants SET score = ? WHERE id = ?`, score, r.id); err != nil {
			return fmt.Errorf("update score for %s: %w", r.id, err)
		}
	}
	return nil
}

// ---- submissions --------------------------------------------------------

// InsertSubmissionTx inserts a submission row inside tx.
func InsertSubmissionTx(ctx context.Context, tx *sql.Tx, sub models.Submission) error {
	testsJSON, err := json.Marshal(sub.Tests)
	if err != nil {
		return fmt.Errorf("marshal tests: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (id, competition_id, participant_id, problem_id, source_code, language, submitted_at, status, pass_score, penalty, submission_tokens, tests_json, feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.CompetitionID, sub.ParticipantID, sub.ProblemID, sub.SourceCode, sub.Language, sub.SubmittedAt,
		string(sub.Verdict), sub.PassScore, sub.Penalty, sub.SubmissionTokens, string(testsJSON), sub.Feedback)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// BestPassScoreTx returns the highest pass_score among AC submissions by
// participant on problem, and whether any AC submission exists at all
// (P3/I2: "max(pass_score over all AC submissions)").
func BestPassScoreTx(ctx context.Context, tx *sql.Tx, competitionID, participantID, problemID string) (best int, hasAC bool, err error) {
	row := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(pass_score), 0), COUNT(*)
		FROM submissions
		WHERE competition_id = ? AND participant_id = ? AND problem_id = ? AND status = ?`,
		competitionID, participantID, problemID, string(models.VerdictAC))
	var count int
	if err := row.Scan(&best, &count); err != nil {
		return 0, false, fmt.Errorf("best pass score: %w", err)
	}
	return best, count > 0, nil
}

// ListSubmissions returns a participant's submissions, most recent first.
func (s *Store) ListSubmissions(ctx context.Context, competitionID, participantID string) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, competition_id, participant_id, problem_id, source_code, language, submitted_at, status, pass_score, penalty, submission_tokens, tests_json, feedback
		FROM submissions WHERE competition_id = ? AND participant_id = ? ORDER BY submitted_at DESC`,
		competitionID, participantID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubmission(row rowScanner) (models.Submission, error) {
	var sub models.Submission
	var status string
	var testsJSON string
	err := row.Scan(&sub.ID, &sub.CompetitionID, &sub.ParticipantID, &sub.ProblemID, &sub.SourceCode, &sub.Language,
		&sub.SubmittedAt, &status, &sub.PassScore, &sub.Penalty, &sub.SubmissionTokens, &testsJSON, &sub.Feedback)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Submission{}, ErrNotFound
	}
	if err != nil {
		return models.Submission{}, fmt.Errorf("scan submission: %w", err)
	}
	sub.Verdict = models.Verdict(status)
	if err := json.Unmarshal([]byte(testsJSON), &sub.Tests); err != nil {
		return models.Submission{}, fmt.Errorf("unmarshal tests: %w", err)
	}
	return sub, nil
}

// SolvedProblemIDs returns the distinct problem IDs this participant has an
// AC submission for — the canonical source of truth for "all problems
// solved" termination (spec.md §9 normative resolution), not any
// agent-cached list.
func (s *Store) SolvedProblemIDs(ctx context.Context, competitionID, participantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT problem_id FROM submissions
		WHERE competition_id = ? AND participant_id = ? AND status = ?`,
		competitionID, participantID, string(models.VerdictAC))
	if err != nil {
		return nil, fmt.Errorf("solved problems: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CompetitionEndedTx reports whether the competition's end has been
// declared (I6), scoped to an existing transaction.
func CompetitionEndedTx(ctx context.Context, tx *sql.Tx, competitionID string) (bool, error) {
	var endedAt sql.NullTime
	row := tx.QueryRowContext(ctx, `SELECT ended_at FROM competitions WHERE id = ?`, competitionID)
	if err := row.Scan(&endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("competition ended check: %w", err)
	}
	return endedAt.Valid, nil
}

// ProblemCountTx returns the number of problems registered to a competition,
// scoped to an existing transaction.
func ProblemCountTx(ctx context.Context, tx *sql.Tx, competitionID string) (int, error) {
	var n int
	row := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems WHERE competition_id = ?`, competitionID)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("problem count: %w", err)
	}
	return n, nil
}

// SolvedProblemCountTx returns the number of distinct problems this
// participant has an AC submission for, scoped to an existing transaction.
// Visible to the caller's own in-flight insert in the same transaction.
func SolvedProblemCountTx(ctx context.Context, tx *sql.Tx, competitionID, participantID string) (int, error) {
	var n int
	row := tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT problem_id) FROM submissions
		WHERE competition_id = ? AND participant_id = ? AND status = ?`,
		competitionID, participantID, string(models.VerdictAC))
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("solved problem count: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
