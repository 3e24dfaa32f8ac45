package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// TextbookCorpus holds the full algorithmic textbook, indexed by section
// (§4.6 hint levels 1 and 2).
type TextbookCorpus struct {
	Articles []Article
}

// LoadTextbook parses a JSON array of {id, title, content} objects.
func LoadTextbook(path string) (*TextbookCorpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read textbook corpus: %w", err)
	}
	var articles []Article
	if err := json.Unmarshal(raw, &articles); err != nil {
		return nil, fmt.Errorf("parse textbook corpus: %w", err)
	}
	return &TextbookCorpus{Articles: articles}, nil
}

// StrategyDoc is the single general competitive-programming strategy
// document surfaced whole at hint level 0 (§4.6).
type StrategyDoc struct {
	Content string
}

// LoadStrategyDoc reads the strategy document as plain text.
func LoadStrategyDoc(path string) (*StrategyDoc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy document: %w", err)
	}
	return &StrategyDoc{Content: string(raw)}, nil
}
