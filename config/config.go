package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds simulation, regression and risk parameters.
// Valuation objects read the active configuration when they are constructed.
type Config struct {
	// Paths is the default number of simulated paths per risk factor.
	Paths int

	// Frequency is the default time-grid sampling frequency (D, B, W, M, BM, Q, A).
	Frequency string

	// DayCount is the number of days per year used to convert grid steps into year fractions.
	DayCount float64

	// BasisFunctions is the polynomial degree of the Longstaff-Schwartz regression.
	BasisFunctions int

	// DeltaDivisor sizes the delta bump as initial value / DeltaDivisor.
	DeltaDivisor float64

	// VegaBump is the minimum absolute volatility bump.
	// The effective bump is max(VegaBump, volatility / VegaDivisor).
	VegaBump    float64
	VegaDivisor float64

	// GreekAccuracy is the number of decimals delta and vega are rounded to.
	GreekAccuracy uint32

	// PVAccuracy is the number of decimals present values are rounded to.
	PVAccuracy uint32

	// MaxCorrelation caps off-diagonal correlations to keep the matrix positive-definite.
	MaxCorrelation float64

	// Seed is the seed of the reproducible stream used whenever fixed seeding is requested.
	Seed uint64

	// Antithetic and MomentMatching toggle the variance-reduction steps of the generator.
	Antithetic     bool
	MomentMatching bool

	// LogLevel is one of debug, info, warn, error.
	LogLevel  string
	LogPretty bool
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Paths:          10000,
	Frequency:      "W",
	DayCount:       365,
	BasisFunctions: 5,
	DeltaDivisor:   50,
	VegaBump:       0.01,
	VegaDivisor:    50,
	GreekAccuracy:  4,
	PVAccuracy:     6,
	MaxCorrelation: 0.999999999999,
	Seed:           1000,
	Antithetic:     true,
	MomentMatching: true,
	LogLevel:       "info",
	LogPretty:      false,
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}

// Load reads a .env file if present and overlays MCVAL_* environment variables on DefaultConfig.
func Load() Config {
	_ = godotenv.Load()

	c := DefaultConfig
	c.Paths = getEnvAsInt("MCVAL_PATHS", c.Paths)
	c.Frequency = getEnv("MCVAL_FREQUENCY", c.Frequency)
	c.DayCount = getEnvAsFloat("MCVAL_DAY_COUNT", c.DayCount)
	c.BasisFunctions = getEnvAsInt("MCVAL_BASIS_FUNCTIONS", c.BasisFunctions)
	c.DeltaDivisor = getEnvAsFloat("MCVAL_DELTA_DIVISOR", c.DeltaDivisor)
	c.VegaBump = getEnvAsFloat("MCVAL_VEGA_BUMP", c.VegaBump)
	c.VegaDivisor = getEnvAsFloat("MCVAL_VEGA_DIVISOR", c.VegaDivisor)
	c.GreekAccuracy = uint32(getEnvAsInt("MCVAL_GREEK_ACCURACY", int(c.GreekAccuracy)))
	c.PVAccuracy = uint32(getEnvAsInt("MCVAL_PV_ACCURACY", int(c.PVAccuracy)))
	c.MaxCorrelation = getEnvAsFloat("MCVAL_MAX_CORRELATION", c.MaxCorrelation)
	c.Seed = uint64(getEnvAsInt("MCVAL_SEED", int(c.Seed)))
	c.Antithetic = getEnvAsBool("MCVAL_ANTITHETIC", c.Antithetic)
	c.MomentMatching = getEnvAsBool("MCVAL_MOMENT_MATCHING", c.MomentMatching)
	c.LogLevel = getEnv("MCVAL_LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvAsBool("MCVAL_LOG_PRETTY", c.LogPretty)
	return c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal >= 0 {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
