package organizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// client is the organizer's own minimal arena HTTP client. It is kept
// separate from pkg/agentdriver's unexported one because the organizer
// needs the admin-facing routes (create competition, create participant)
// that no competitor agent ever calls.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{baseURL: baseURL, http: &http.Client{}}
}

func (c *client) do(ctx context.Context, method, path, token string, body, out any) error {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
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

type competitionPayload struct {
	ID string `json:"id"`
}

type createCompetitionResponse struct {
	Data struct {
		Competition      competitionPayload `json:"competition"`
		NotFoundProblems []string           `json:"not_found_problems"`
	} `json:"data"`
}

func (c *client) createCompetition(ctx context.Context, spec CompetitionSpec) (competitionPayload, []string, error) {
	body := map[string]any{
		"title":                       spec.Title,
		"description":                 spec.Description,
		"problem_ids":                 spec.ProblemIDs,
		"max_tokens_per_participant":  spec.MaxTokensPerParticipant,
	}
	var out createCompetitionResponse
	if err := c.do(ctx, http.MethodPost, "/competitions/create", "", body, &out); err != nil {
		return competitionPayload{}, nil, err
	}
	return out.Data.Competition, out.Data.NotFoundProblems, nil
}

type createParticipantResponse struct {
	Data struct {
		Participant struct {
			ID string `json:"id"`
		} `json:"participant"`
		Token string `json:"token"`
	} `json:"data"`
}

func (c *client) createParticipant(ctx context.Context, competitionID, name, llmEndpoint, llmKey string) (id, token string, err error) {
	body := map[string]any{"name": name, "llm_endpoint": llmEndpoint, "llm_key": llmKey}
	var out createParticipantResponse
	if err := c.do(ctx, http.MethodPost, "/participants/create/"+competitionID, "", body, &out); err != nil {
		return "", "", err
	}
	return out.Data.Participant.ID, out.Data.Token, nil
}

func (c *client) getParticipant(ctx context.Context, competitionID, participantID, token string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/participants/"+competitionID+"/"+participantID, token, nil, &out)
	return out, err
}
