package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenahq/arena/pkg/models"
)

func TestDefaultsResolveAndValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Server.TokenSecret = "test-secret"
	require.NoError(t, cfg.resolveDerived())
	assert.Equal(t, 30_000_000_000, int(cfg.OnlineJudge.Timeout))
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.Validate())
}

func TestResolveDerivedRejectsBadDuration(t *testing.T) {
	cfg := Defaults()
	cfg.OnlineJudge.TimeoutRaw = "not-a-duration"
	assert.Error(t, cfg.resolveDerived())
}

func TestMergeRulesOverridesOnlySetFields(t *testing.T) {
	defaults := models.Rules{
		Scoring:         map[models.Level]int{models.LevelBronze: 100},
		BonusForFirstAC: 20,
		Lambda:          100,
	}
	override := models.Rules{
		BonusForFirstAC: 50,
	}

	merged, err := MergeRules(defaults, override)
	require.NoError(t, err)
	assert.Equal(t, 50, merged.BonusForFirstAC)
	assert.Equal(t, 100, merged.Lambda, "fields the override leaves zero-valued should keep the default")
	assert.Equal(t, 100, merged.Scoring[models.LevelBronze])
}
