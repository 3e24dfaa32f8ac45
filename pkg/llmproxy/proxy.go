// Package llmproxy forwards an agent's chat-completion calls to its
// participant-configured LLM endpoint and debits the resulting token usage
// through pkg/scoring (spec.md §4.8 "LLM proxy action"). Requests and
// responses use the go-openai wire types so any OpenAI-compatible
// provider — OpenAI itself, Groq, a local vLLM server — can sit behind
// llm_endpoint without a provider-specific code path.
package llmproxy

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/arenahq/arena/pkg/masking"
	"github.com/arenahq/arena/pkg/models"
	"github.com/arenahq/arena/pkg/scoring"
)

// Proxy forwards chat completions to each participant's own endpoint.
type Proxy struct {
	engine *scoring.Engine
	mask   *masking.Service
}

// NewProxy builds a Proxy over engine.
func NewProxy(engine *scoring.Engine) *Proxy {
	return &Proxy{engine: engine, mask: masking.NewService()}
}

// Call sends req to the participant's configured endpoint and key, debits
// the reported token usage, and returns the provider response wrapped in a
// one-element array (§4.8: "the proxy response body is the provider's
// response, wrapped"). If the call succeeds but the debit leaves the
// participant out of tokens, the debit itself marks the participant
// terminated with reason out_of_tokens and this call's response is still
// returned; the participant's next action is rejected.
func (p *Proxy) Call(ctx context.Context, competitionID string, participant models.Participant, req goopenai.ChatCompletionRequest, rules models.Rules) ([]goopenai.ChatCompletionResponse, models.Participant, error) {
	if participant.LLMEndpoint == "" {
		return nil, participant, fmt.Errorf("llmproxy: participant %s has no llm_endpoint configured", participant.ID)
	}

	p.mask.RegisterSecret(participant.LLMKey)

	cfg := goopenai.DefaultConfig(participant.LLMKey)
	cfg.BaseURL = participant.LLMEndpoint
	client := goopenai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, participant, fmt.Errorf("llmproxy: upstream call failed: %s", p.mask.Redact(err.Error()))
	}

	reasoningTokens := 0
	if resp.Usage.CompletionTokensDetails != nil {
		reasoningTokens = resp.Usage.CompletionTokensDetails.ReasoningTokens
	}

	updated, err := p.engine.RecordLLMCall(ctx, competitionID, participant.ID, req.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, reasoningTokens, rules)
	if err != nil {
		return nil, participant, fmt.Errorf("llmproxy: debit failed: %w", err)
	}

	return []goopenai.ChatCompletionResponse{resp}, updated, nil
}
