package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// GuideCorpus holds the worked-example guide, bucketed by difficulty tier
// (§4.6 hint level 4, "guide lookup").
type GuideCorpus struct {
	byDifficulty map[string][]GuideEntry
}

// LoadGuide parses a JSON object keyed by difficulty ("bronze", "silver",
// "gold", "platinum", "advanced") whose values are arrays of GuideEntry.
func LoadGuide(path string) (*GuideCorpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guide corpus: %w", err)
	}
	var decoded map[string][]GuideEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse guide corpus: %w", err)
	}

	byDifficulty := make(map[string][]GuideEntry, len(decoded))
	for k, entries := range decoded {
		byDifficulty[normalizeDifficulty(k)] = entries
	}
	return &GuideCorpus{byDifficulty: byDifficulty}, nil
}

// ForDifficulty returns the guide entries for difficulty, or nil if none
// are defined. difficulty is matched case-insensitively.
func (g *GuideCorpus) ForDifficulty(difficulty string) []GuideEntry {
	return g.byDifficulty[normalizeDifficulty(difficulty)]
}

func normalizeDifficulty(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validDifficulties is the guide's own difficulty vocabulary (§4.6 level
// 4), distinct from models.Level: it additionally allows "advanced".
var validDifficulties = map[string]bool{
	"bronze": true, "silver": true, "gold": true, "platinum": true, "advanced": true,
}

// ValidDifficulty reports whether difficulty is one of the five tiers a
// guide lookup hint may request.
func ValidDifficulty(difficulty string) bool {
	return validDifficulties[normalizeDifficulty(difficulty)]
}
