package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesDefaultsOnMissingEntries(t *testing.T) {
	r := Rules{}
	assert.Equal(t, 0, r.BaseScore(LevelGold))
	assert.Equal(t, 0, r.Penalty(VerdictWA))
	assert.Equal(t, 0, r.SubmissionCost(VerdictAC))
	assert.Equal(t, 0, r.HintCost(HintStrategy))
	assert.Equal(t, 1.0, r.InputMultiplier("gpt-4"))
	assert.Equal(t, 1.0, r.OutputMultiplier("gpt-4"))
}

func TestRulesConfiguredMultipliers(t *testing.T) {
	r := Rules{
		InputTokenMultipliers:  map[string]float64{"gpt-4": 2.5},
		OutputTokenMultipliers: map[string]float64{"gpt-4": 5},
	}
	assert.Equal(t, 2.5, r.InputMultiplier("gpt-4"))
	assert.Equal(t, 5.0, r.OutputMultiplier("gpt-4"))
	assert.Equal(t, 1.0, r.InputMultiplier("other-model"))
}
