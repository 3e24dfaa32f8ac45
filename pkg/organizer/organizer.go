// Package organizer drives a complete competition end to end over the
// arena's own HTTP API: create the competition, register every
// competitor, run all of them concurrently, and collect their final
// standings. It is grounded on
// original_source/scripts/competition_organizer.py's CompetitionOrganizer,
// with asyncio.gather's fan-out replaced by golang.org/x/sync/errgroup.
package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arenahq/arena/pkg/agentdriver"
)

// CompetitorSpec is one participant to register and run.
type CompetitorSpec struct {
	Name        string
	LLMEndpoint string
	LLMKey      string
	Model       string
	MaxTurns    int
}

// CompetitionSpec describes the competition to create.
type CompetitionSpec struct {
	Title                   string
	Description             string
	ProblemIDs              []string
	MaxTokensPerParticipant int
}

// Organizer runs a full competition over an already-running arena server.
type Organizer struct {
	client *client
}

// New builds an Organizer that talks to the arena at apiBaseURL.
func New(apiBaseURL string) *Organizer {
	return &Organizer{client: newClient(apiBaseURL)}
}

// Run creates the competition, registers every competitor (verifying each
// registration by reading it back, per the original organizer's
// join_competition), then runs all competitors concurrently and returns
// their final results keyed by competitor name.
func (o *Organizer) Run(ctx context.Context, spec CompetitionSpec, competitors []CompetitorSpec) (map[string]agentdriver.Result, error) {
	comp, notFound, err := o.client.createCompetition(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("organizer: create competition: %w", err)
	}
	if len(notFound) > 0 {
		slog.Warn("some problems were not found", "problem_ids", notFound)
	}

	type registered struct {
		spec  CompetitorSpec
		token string
		id    string
	}
	regs := make([]registered, 0, len(competitors))

	for _, cs := range competitors {
		id, token, err := o.client.createParticipant(ctx, comp.ID, cs.Name, cs.LLMEndpoint, cs.LLMKey)
		if err != nil {
			return nil, fmt.Errorf("organizer: register %s: %w", cs.Name, err)
		}

		// Wait for the write to be durable, then read it back before trusting
		// it: mirrors join_competition's one-second settle-then-verify step.
		time.Sleep(1 * time.Second)
		if _, err := o.client.getParticipant(ctx, comp.ID, id, token); err != nil {
			return nil, fmt.Errorf("organizer: verify %s was registered: %w", cs.Name, err)
		}
		slog.Info("participant verified", "name", cs.Name, "participant_id", id)

		regs = append(regs, registered{spec: cs, token: token, id: id})
	}

	results := make(map[string]agentdriver.Result, len(regs))
	resultsCh := make(chan struct {
		name   string
		result agentdriver.Result
	}, len(regs))

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range regs {
		r := r
		g.Go(func() error {
			driver := agentdriver.New(agentdriver.Config{
				APIBaseURL:    o.client.baseURL,
				ParticipantID: r.id,
				CompetitionID: comp.ID,
				Token:         r.token,
				LLMEndpoint:   r.spec.LLMEndpoint,
				LLMKey:        r.spec.LLMKey,
				Model:         r.spec.Model,
				MaxTurns:      r.spec.MaxTurns,
			})
			res, err := driver.Run(gctx)
			if err != nil {
				slog.Warn("competitor finished with error", "name", r.spec.Name, "error", err)
			}
			resultsCh <- struct {
				name   string
				result agentdriver.Result
			}{r.spec.Name, res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)
	for entry := range resultsCh {
		results[entry.name] = entry.result
	}

	return results, nil
}
