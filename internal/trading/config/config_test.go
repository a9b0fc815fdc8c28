package config_test

import (
	"testing"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Pairs)
	assert.Equal(t, 64, cfg.MaxCascadeDepth)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.False(t, cfg.Redis.Enabled)
}

func TestSymbolConfigsConvertsPairs(t *testing.T) {
	cfg := config.Default()
	symbols := cfg.SymbolConfigs()
	require.Len(t, symbols, len(cfg.Pairs))
	assert.Equal(t, cfg.Pairs[0].Symbol, symbols[0].Symbol)
	assert.False(t, symbols[0].HasFeeOverride)
}

func TestSymbolConfigsHonorsFeeOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Pairs[0].MakerRate = 0.001
	cfg.Pairs[0].TakerRate = 0.002
	symbols := cfg.SymbolConfigs()
	assert.True(t, symbols[0].HasFeeOverride)
}

func TestValidateRejectsNonPositiveCascadeDepth(t *testing.T) {
	cfg := config.Default()
	cfg.MaxCascadeDepth = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptySymbol(t *testing.T) {
	cfg := config.Default()
	cfg.Pairs[0].Symbol = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTickSize(t *testing.T) {
	cfg := config.Default()
	cfg.Pairs[0].TickSize = 0
	assert.Error(t, cfg.Validate())
}
