package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_OverlaysEnvironment(t *testing.T) {
	t.Setenv("MCVAL_PATHS", "2500")
	t.Setenv("MCVAL_FREQUENCY", "M")
	t.Setenv("MCVAL_MAX_CORRELATION", "0.95")
	t.Setenv("MCVAL_ANTITHETIC", "false")
	t.Setenv("MCVAL_BASIS_FUNCTIONS", "not-a-number")

	c := Load()

	assert.Equal(t, 2500, c.Paths)
	assert.Equal(t, "M", c.Frequency)
	assert.InDelta(t, 0.95, c.MaxCorrelation, 1e-15)
	assert.False(t, c.Antithetic)
	assert.Equal(t, DefaultConfig.BasisFunctions, c.BasisFunctions, "invalid values keep the default")
}

func TestSetConfig(t *testing.T) {
	orig := GetConfig()
	defer SetConfig(orig)

	c := DefaultConfig
	c.Seed = 42
	SetConfig(c)
	assert.Equal(t, uint64(42), GetConfig().Seed)
}
