// Package agentdriver is the reference agent loop: a perceive-act cycle
// that queries a participant's own LLM endpoint for its next move and
// executes that move against the arena's HTTP action API (spec.md §4.8,
// grounded on original_source/scripts/competition_organizer.py's
// _run_competitor/_process_action pair). Third-party agents implement
// their own version of this loop against any HTTP client they like; this
// package exists so the arena can run end-to-end competitions without an
// external harness.
package agentdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// Config configures one participant's driver.
type Config struct {
	APIBaseURL    string
	ParticipantID string
	CompetitionID string
	Token         string
	LLMEndpoint   string
	LLMKey        string
	Model         string
	MaxTurns      int
}

// Driver runs one participant's perceive-act loop to completion.
type Driver struct {
	cfg     Config
	arena   *arenaClient
	llm     *goopenai.Client
	history []goopenai.ChatCompletionMessage
}

// New builds a Driver from cfg.
func New(cfg Config) *Driver {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 50
	}
	llmCfg := goopenai.DefaultConfig(cfg.LLMKey)
	llmCfg.BaseURL = cfg.LLMEndpoint
	return &Driver{
		cfg:   cfg,
		arena: newArenaClient(cfg.APIBaseURL, cfg.Token),
		llm:   goopenai.NewClientWithConfig(llmCfg),
	}
}

// Result summarizes a completed run for the organizer's final report.
type Result struct {
	ParticipantID     string   `json:"participant_id"`
	FinalScore        int      `json:"score"`
	RemainingTokens   int      `json:"remaining_tokens"`
	TerminationReason string   `json:"termination_reason"`
	SolvedProblems    []string `json:"solved_problems"`
}

type agentAction struct {
	Action            string `json:"action"`
	ProblemID         string `json:"problem_id,omitempty"`
	Code              string `json:"code,omitempty"`
	Language          string `json:"language,omitempty"`
	HintLevel         int    `json:"hint_level,omitempty"`
	HintKnowledge     string `json:"hint_knowledge,omitempty"`
	ProblemDifficulty string `json:"problem_difficulty,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Run drives the participant until it terminates or MaxTurns is reached.
// A driver-level error (LLM unreachable, repeated unparsable actions)
// terminates the participant with reason "error" rather than leaving it
// stuck consuming the rate limiter indefinitely.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	log := slog.With("participant_id", d.cfg.ParticipantID, "competition_id", d.cfg.CompetitionID)

	comp, err := d.arena.viewCompetition(ctx, d.cfg.CompetitionID)
	if err != nil {
		return d.errorResult(ctx, fmt.Errorf("view competition: %w", err))
	}
	d.history = []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt(comp)},
	}

	parseFailures := 0
	for turn := 0; turn < d.cfg.MaxTurns; turn++ {
		participant, err := d.arena.viewParticipant(ctx, d.cfg.CompetitionID, d.cfg.ParticipantID)
		if err != nil {
			return d.errorResult(ctx, fmt.Errorf("view participant: %w", err))
		}
		if !participant.IsRunning {
			return d.finalResult(ctx)
		}

		action, err := d.nextAction(ctx, participant)
		if err != nil {
			parseFailures++
			log.Warn("failed to parse agent action", "error", err, "consecutive_failures", parseFailures)
			if parseFailures >= 3 {
				return d.errorResult(ctx, fmt.Errorf("too many unparsable actions: %w", err))
			}
			d.history = append(d.history, goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Your last response could not be parsed as a JSON action: %v. Respond with a single JSON object only.", err),
			})
			continue
		}
		parseFailures = 0

		result, terminated := d.execute(ctx, action)
		d.history = append(d.history, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleUser,
			Content: "Action result: " + result,
		})
		d.capHistory()

		if terminated {
			return d.finalResult(ctx)
		}
	}

	_ = d.arena.terminate(ctx, d.cfg.CompetitionID, d.cfg.ParticipantID, "timeout")
	return d.finalResult(ctx)
}

func (d *Driver) nextAction(ctx context.Context, participant participantView) (agentAction, error) {
	d.history = append(d.history, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: fmt.Sprintf("Current state: remaining_tokens=%d score=%d solved=%v. Respond with your next action as a single JSON object.", participant.RemainingTokens, participant.Score, participant.SolvedProblems),
	})

	resp, err := d.llm.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    d.cfg.Model,
		Messages: d.history,
	})
	if err != nil {
		return agentAction{}, fmt.Errorf("llm call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agentAction{}, fmt.Errorf("llm returned no choices")
	}

	content := resp.Choices[0].Message.Content
	d.history = append(d.history, resp.Choices[0].Message)

	block := jsonBlockPattern.FindString(content)
	if block == "" {
		return agentAction{}, fmt.Errorf("no JSON object found in response")
	}

	var action agentAction
	if err := json.Unmarshal([]byte(block), &action); err != nil {
		return agentAction{}, fmt.Errorf("invalid JSON action: %w", err)
	}
	if strings.TrimSpace(action.Action) == "" {
		return agentAction{}, fmt.Errorf("action field missing")
	}
	return action, nil
}

// execute runs one parsed action against the arena API and returns a
// human-readable result summary plus whether the participant terminated.
func (d *Driver) execute(ctx context.Context, action agentAction) (string, bool) {
	switch action.Action {
	case "view_problems":
		comp, err := d.arena.viewCompetition(ctx, d.cfg.CompetitionID)
		if err != nil {
			return err.Error(), false
		}
		b, _ := json.Marshal(comp.Problems)
		return string(b), false

	case "view_problem":
		problem, err := d.arena.viewProblem(ctx, d.cfg.CompetitionID, action.ProblemID)
		if err != nil {
			return err.Error(), false
		}
		b, _ := json.Marshal(problem)
		return string(b), false

	case "get_hint":
		hint, err := d.arena.getHint(ctx, d.cfg.CompetitionID, d.cfg.ParticipantID, action.ProblemID, action.HintLevel, action.HintKnowledge, action.ProblemDifficulty)
		if err != nil {
			return err.Error(), false
		}
		b, _ := json.Marshal(hint)
		return string(b), false

	case "submission_solution", "submit_solution":
		language := action.Language
		if language == "" {
			language = "cpp"
		}
		sub, err := d.arena.submit(ctx, d.cfg.CompetitionID, d.cfg.ParticipantID, action.ProblemID, action.Code, language)
		if err != nil {
			return err.Error(), false
		}
		b, _ := json.Marshal(sub)
		return string(b), false

	case "view_rankings":
		rankings, err := d.arena.viewRankings(ctx, d.cfg.CompetitionID)
		if err != nil {
			return err.Error(), false
		}
		b, _ := json.Marshal(rankings)
		return string(b), false

	case "terminate":
		reason := action.Reason
		if reason == "" {
			reason = "manual_termination"
		}
		if err := d.arena.terminate(ctx, d.cfg.CompetitionID, d.cfg.ParticipantID, reason); err != nil {
			return err.Error(), false
		}
		return "terminated: " + reason, true

	default:
		return fmt.Sprintf("unknown action: %s", action.Action), false
	}
}

// capHistory keeps the conversation under MaxTurns*2 messages (plus the
// leading system prompt), preventing unbounded growth of the prompt sent
// to the participant's own LLM on every turn.
func (d *Driver) capHistory() {
	limit := d.cfg.MaxTurns * 2
	if len(d.history) <= limit+1 {
		return
	}
	d.history = append(d.history[:1:1], d.history[len(d.history)-limit:]...)
}

func (d *Driver) errorResult(ctx context.Context, cause error) (Result, error) {
	_ = d.arena.terminate(ctx, d.cfg.CompetitionID, d.cfg.ParticipantID, "error")
	res, _ := d.finalResult(ctx)
	return res, cause
}

func (d *Driver) finalResult(ctx context.Context) (Result, error) {
	participant, err := d.arena.viewParticipant(ctx, d.cfg.CompetitionID, d.cfg.ParticipantID)
	if err != nil {
		return Result{ParticipantID: d.cfg.ParticipantID}, err
	}
	return Result{
		ParticipantID:     d.cfg.ParticipantID,
		FinalScore:        participant.Score,
		RemainingTokens:   participant.RemainingTokens,
		TerminationReason: participant.TerminationReason,
		SolvedProblems:    participant.SolvedProblems,
	}, nil
}

func systemPrompt(comp competitionView) string {
	var b strings.Builder
	b.WriteString("You are an autonomous competitive programming agent in \"")
	b.WriteString(comp.Title)
	b.WriteString("\". Available actions: view_problems, view_problem, get_hint, submission_solution, view_rankings, terminate.\n")
	b.WriteString("Respond with exactly one JSON object per turn, e.g. {\"action\": \"submission_solution\", \"problem_id\": \"...\", \"code\": \"...\", \"language\": \"cpp\"}.\n")
	b.WriteString("get_hint levels: 0 strategy, 1 textbook (needs problem_id), 2 focused textbook (needs hint_knowledge), 3 similar problems (needs problem_id), 4 guide lookup (needs hint_knowledge and problem_difficulty, one of bronze/silver/gold/platinum/advanced).\n")
	return b.String()
}
