// Package masking redacts secrets from text before it reaches a log line
// or an error surfaced to another participant — principally each
// participant's configured llm_key (spec.md §3). Adapted from the
// teacher's pattern-based masking service, trimmed to the arena's single
// concern: credential-shaped substrings, not MCP tool payloads.
package masking

import (
	"regexp"
	"strings"
	"sync"
)

// CompiledPattern is a precompiled redaction rule.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// Service applies a fixed set of built-in redaction patterns plus any
// participant-specific literal secrets registered at runtime.
type Service struct {
	patterns []*CompiledPattern

	mu       sync.RWMutex
	literals map[string]bool
}

func builtinPatterns() []*CompiledPattern {
	return []*CompiledPattern{
		{
			Name:        "bearer_token",
			Regex:       regexp.MustCompile(`(?i)bearer\s+[a-z0-9._-]+`),
			Replacement: "Bearer [REDACTED]",
		},
		{
			Name:        "openai_style_key",
			Regex:       regexp.MustCompile(`sk-[a-zA-Z0-9]{16,}`),
			Replacement: "[REDACTED]",
		},
		{
			Name:        "jwt",
			Regex:       regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
			Replacement: "[REDACTED]",
		},
	}
}

// NewService builds a Service with the built-in patterns compiled.
func NewService() *Service {
	return &Service{patterns: builtinPatterns(), literals: map[string]bool{}}
}

// RegisterSecret marks an exact string (e.g. a participant's llm_key) for
// literal redaction in addition to the regex patterns. Empty strings are
// ignored so a missing key never becomes an accidental wildcard.
func (s *Service) RegisterSecret(secret string) {
	if secret == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.literals[secret] = true
}

// Redact returns text with every known secret replaced.
func (s *Service) Redact(text string) string {
	s.mu.RLock()
	literals := make([]string, 0, len(s.literals))
	for literal := range s.literals {
		literals = append(literals, literal)
	}
	s.mu.RUnlock()

	out := text
	for _, literal := range literals {
		out = strings.ReplaceAll(out, literal, "[REDACTED]")
	}
	for _, p := range s.patterns {
		out = p.Regex.ReplaceAllString(out, p.Replacement)
	}
	return out
}
