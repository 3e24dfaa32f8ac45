package agentdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// arenaClient is a minimal HTTP client for the arena's own action API
// (pkg/api), used by a driver to perceive state and submit actions exactly
// as an external agent would (spec.md §4.7). Keeping the driver on the
// HTTP surface rather than calling pkg/scoring directly means the
// reference agent exercises the same protocol every other participant
// uses.
type arenaClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newArenaClient(baseURL, token string) *arenaClient {
	return &arenaClient{baseURL: baseURL, token: token, http: &http.Client{}}
}

func (c *arenaClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("arena API error (%d): %s", resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// competitionView mirrors pkg/api's GET /competitions/{id} response.
type competitionView struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Problems []problemBrief `json:"problems"`
}

type problemBrief struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Level       string `json:"level"`
	TimeLimitMS int    `json:"time_limit_ms"`
}

type problemView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Level       string     `json:"level"`
	TimeLimitMS int        `json:"time_limit_ms"`
	Samples     []sampleIO `json:"samples"`
}

type sampleIO struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// participantView mirrors pkg/api's GET /participants/{competition_id}/{id}.
type participantView struct {
	ID                string   `json:"id"`
	IsRunning         bool     `json:"is_running"`
	TerminationReason string   `json:"termination_reason,omitempty"`
	RemainingTokens   int      `json:"remaining_tokens"`
	Score             int      `json:"score"`
	SolvedProblems    []string `json:"solved_problems"`
}

type rankingRow struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
}

type submissionResult struct {
	Verdict     string              `json:"verdict"`
	PassScore   int                 `json:"pass_score"`
	Feedback    string              `json:"feedback"`
	Participant participantView     `json:"participant"`
}

type textbookMatch struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type similarProblemMatch struct {
	ProblemID   string `json:"problem_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
}

type guideMatch struct {
	Concept     string  `json:"concept"`
	Explanation string  `json:"explanation"`
	Score       float64 `json:"score"`
}

type hintResult struct {
	Title           string                `json:"title"`
	Content         string                `json:"content,omitempty"`
	TextbookMatches []textbookMatch       `json:"textbook_matches,omitempty"`
	SimilarProblems []similarProblemMatch `json:"similar_problems,omitempty"`
	GuideMatch      *guideMatch           `json:"guide_match,omitempty"`
	Participant     participantView       `json:"participant"`
}

func (c *arenaClient) viewCompetition(ctx context.Context, competitionID string) (competitionView, error) {
	var out competitionView
	err := c.do(ctx, http.MethodGet, "/competitions/"+competitionID, nil, &out)
	return out, err
}

func (c *arenaClient) viewProblem(ctx context.Context, competitionID, problemID string) (problemView, error) {
	var out problemView
	err := c.do(ctx, http.MethodGet, "/problems/"+competitionID+"/"+problemID, nil, &out)
	return out, err
}

func (c *arenaClient) viewParticipant(ctx context.Context, competitionID, participantID string) (participantView, error) {
	var out participantView
	err := c.do(ctx, http.MethodGet, "/participants/"+competitionID+"/"+participantID, nil, &out)
	return out, err
}

func (c *arenaClient) viewRankings(ctx context.Context, competitionID string) ([]rankingRow, error) {
	var out []rankingRow
	err := c.do(ctx, http.MethodGet, "/rankings/get/"+competitionID, nil, &out)
	return out, err
}

func (c *arenaClient) getHint(ctx context.Context, competitionID, participantID, problemID string, level int, hintKnowledge, problemDifficulty string) (hintResult, error) {
	var out hintResult
	body := map[string]any{"problem_id": problemID, "level": level}
	if hintKnowledge != "" {
		body["hint_knowledge"] = hintKnowledge
	}
	if problemDifficulty != "" {
		body["problem_difficulty"] = problemDifficulty
	}
	err := c.do(ctx, http.MethodPost, "/hints/get/"+competitionID+"/"+participantID, body, &out)
	return out, err
}

func (c *arenaClient) submit(ctx context.Context, competitionID, participantID, problemID, code, language string) (submissionResult, error) {
	var out submissionResult
	body := map[string]any{"problem_id": problemID, "source_code": code, "language": language}
	err := c.do(ctx, http.MethodPost, "/submissions/create/"+competitionID+"/"+participantID, body, &out)
	return out, err
}

func (c *arenaClient) terminate(ctx context.Context, competitionID, participantID, reason string) error {
	body := map[string]any{"reason": reason}
	return c.do(ctx, http.MethodPost, "/participants/terminate/"+competitionID+"/"+participantID, body, nil)
}
