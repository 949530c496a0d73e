// Package sim simulates risk-factor paths on a date grid.
package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcval/config"
	"github.com/meenmo/mcval/grid"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/random"
	"github.com/meenmo/mcval/utils"
)

// Simulator produces a (len(grid) x paths) matrix of simulated values whose row 0 is the
// initial value. Paths are cached until Update changes a parameter.
type Simulator interface {
	Name() string
	InitialValue() float64
	Volatility() float64
	TimeGrid() ([]time.Time, error)
	AddSpecialDates(dates ...time.Time)
	Update(p Update)
	GeneratePaths(fixedSeed bool) error
	Paths(fixedSeed bool) (*mat.Dense, error)
	DiscountCurve() market.DiscountCurve
}

// Update carries the parameters to change. Nil fields are left as they are; fields a model
// does not use are ignored.
type Update struct {
	InitialValue *float64
	Volatility   *float64
	FinalDate    *time.Time
	Lambda       *float64
	Mu           *float64
	Delta        *float64
	Kappa        *float64
	Theta        *float64
}

// Model tags accepted by New.
const (
	ModelGBM  = "gbm"
	ModelJD   = "jd"
	ModelSRD  = "srd"
	curveName = market.KeyDiscountCurve
)

// Option configures a simulator.
type Option func(*base)

// WithLogger sets the logger used for path-generation diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(b *base) { b.log = l }
}

// New builds the simulator named by model (gbm, jd or srd).
func New(model, name string, env *market.Environment, corr *Correlation, opts ...Option) (Simulator, error) {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case ModelGBM, "geometric_brownian_motion":
		return NewGBM(name, env, corr, opts...)
	case ModelJD, "jump_diffusion":
		return NewJumpDiffusion(name, env, corr, opts...)
	case ModelSRD, "square_root_diffusion":
		return NewSquareRootDiffusion(name, env, corr, opts...)
	default:
		return nil, market.Invalid(market.KeyModel, "unknown model %q", model)
	}
}

// generator fills rows 1.. of paths given the grid and the normals of each row.
type generator func(paths *mat.Dense, grid []time.Time, normals func(t int) ([]float64, error), fixedSeed bool) error

type base struct {
	name         string
	pricingDate  time.Time
	initialValue float64
	volatility   float64
	finalDate    time.Time
	currency     string
	frequency    string
	paths        int
	dayCount     float64
	curve        market.DiscountCurve

	explicitGrid []time.Time
	specialDates []time.Time
	timeGrid     []time.Time

	corr   *Correlation
	values *mat.Dense
	gen    generator
	log    zerolog.Logger
}

func newBase(name string, env *market.Environment, corr *Correlation, opts []Option) (*base, error) {
	if env == nil {
		return nil, market.Invalid("environment", "nil market environment for %q", name)
	}
	cfg := config.GetConfig()
	b := &base{
		name:        name,
		pricingDate: utils.Truncate(env.PricingDate),
		frequency:   cfg.Frequency,
		paths:       cfg.Paths,
		dayCount:    cfg.DayCount,
		corr:        corr,
		log:         zerolog.Nop(),
	}

	var err error
	if b.initialValue, err = env.Float(market.KeyInitialValue); err != nil {
		return nil, err
	}
	if b.volatility, err = env.Float(market.KeyVolatility); err != nil {
		return nil, err
	}
	if b.volatility < 0 {
		return nil, market.Invalid(market.KeyVolatility, "volatility must be non-negative, got %v", b.volatility)
	}
	if b.finalDate, err = env.Date(market.KeyFinalDate); err != nil {
		return nil, err
	}
	if b.currency, err = env.String(market.KeyCurrency); err != nil {
		return nil, err
	}
	if b.curve, err = env.Curve(curveName); err != nil {
		return nil, err
	}
	if env.HasConstant(market.KeyFrequency) {
		if b.frequency, err = env.String(market.KeyFrequency); err != nil {
			return nil, err
		}
	}
	if env.HasConstant(market.KeyPaths) {
		if b.paths, err = env.Int(market.KeyPaths); err != nil {
			return nil, err
		}
	}
	if b.paths <= 0 {
		return nil, market.Invalid(market.KeyPaths, "number of paths must be positive, got %d", b.paths)
	}
	if env.HasList(market.KeyTimeGrid) {
		if b.explicitGrid, err = env.Dates(market.KeyTimeGrid); err != nil {
			return nil, err
		}
	}
	if env.HasList(market.KeySpecialDates) {
		if b.specialDates, err = env.Dates(market.KeySpecialDates); err != nil {
			return nil, err
		}
	}

	if corr != nil {
		if _, ok := corr.Index(name); !ok {
			return nil, market.Invalid("correlations", "risk factor %q is not part of the correlation structure", name)
		}
		if b.paths != corr.Shape().Paths {
			return nil, market.Invalid(market.KeyPaths, "%q simulates %d paths but the random cube holds %d",
				name, b.paths, corr.Shape().Paths)
		}
	}

	for _, o := range opts {
		o(b)
	}
	return b, nil
}

func (b *base) Name() string                        { return b.name }
func (b *base) InitialValue() float64               { return b.initialValue }
func (b *base) Volatility() float64                 { return b.volatility }
func (b *base) DiscountCurve() market.DiscountCurve { return b.curve }
func (b *base) Currency() string                    { return b.currency }
func (b *base) PricingDate() time.Time              { return b.pricingDate }

// TimeGrid returns the explicit time_grid of the environment (plus special dates) when one
// was supplied, otherwise a grid built from the pricing date, final date and frequency.
func (b *base) TimeGrid() ([]time.Time, error) {
	if b.timeGrid != nil {
		return b.timeGrid, nil
	}
	var (
		g   []time.Time
		err error
	)
	if b.explicitGrid != nil {
		g = utils.UniqueSortedDates(append(append([]time.Time(nil), b.explicitGrid...), b.specialDates...))
	} else {
		g, err = grid.Build(grid.Spec{
			Start:        b.pricingDate,
			End:          b.finalDate,
			Frequency:    b.frequency,
			SpecialDates: b.specialDates,
		})
		if err != nil {
			return nil, fmt.Errorf("TimeGrid %s: %w", b.name, err)
		}
	}
	if len(g) < 2 {
		return nil, market.Invalid(market.KeyTimeGrid, "%q needs at least two grid dates", b.name)
	}
	b.timeGrid = g
	return g, nil
}

// AddSpecialDates inserts dates into the grid. Dates already present leave the cached paths
// untouched.
func (b *base) AddSpecialDates(dates ...time.Time) {
	changed := false
	for _, d := range dates {
		if _, ok := utils.IndexOfDate(b.specialDates, d); ok {
			continue
		}
		b.specialDates = append(b.specialDates, utils.Truncate(d))
		if _, ok := utils.IndexOfDate(b.timeGrid, d); !ok {
			changed = true
		}
	}
	if changed {
		b.timeGrid = nil
		b.values = nil
	}
}

// update applies the parameters shared by every model and clears the cached paths.
func (b *base) update(p Update) {
	if p.InitialValue != nil {
		b.initialValue = *p.InitialValue
	}
	if p.Volatility != nil {
		b.volatility = *p.Volatility
	}
	if p.FinalDate != nil {
		b.finalDate = *p.FinalDate
		b.timeGrid = nil
	}
	b.values = nil
}

// GeneratePaths simulates and caches a fresh path matrix.
func (b *base) GeneratePaths(fixedSeed bool) error {
	start := time.Now()
	g, err := b.TimeGrid()
	if err != nil {
		return err
	}

	normals, err := b.normals(g, fixedSeed)
	if err != nil {
		return fmt.Errorf("GeneratePaths %s: %w", b.name, err)
	}

	values := mat.NewDense(len(g), b.paths, nil)
	row0 := values.RawRowView(0)
	for p := range row0 {
		row0[p] = b.initialValue
	}
	if err := b.gen(values, g, normals, fixedSeed); err != nil {
		return fmt.Errorf("GeneratePaths %s: %w", b.name, err)
	}
	b.values = values

	b.log.Debug().
		Str("factor", b.name).
		Int("dates", len(g)).
		Int("paths", b.paths).
		Bool("correlated", b.corr != nil).
		Dur("elapsed", time.Since(start)).
		Msg("paths generated")
	return nil
}

// Paths returns the cached path matrix, generating it first if needed. The matrix is owned by
// the simulator and must not be modified.
func (b *base) Paths(fixedSeed bool) (*mat.Dense, error) {
	if b.values == nil {
		if err := b.GeneratePaths(fixedSeed); err != nil {
			return nil, err
		}
	}
	return b.values, nil
}

func (b *base) normals(g []time.Time, fixedSeed bool) (func(t int) ([]float64, error), error) {
	if b.corr != nil {
		if d := b.corr.Shape().Dates; d != len(g) {
			return nil, market.Invalid(market.KeyTimeGrid, "grid of %d dates does not match random cube of %d", len(g), d)
		}
		return func(t int) ([]float64, error) { return b.corr.Draw(b.name, t) }, nil
	}
	z, err := random.StandardNormalMatrix(len(g), b.paths, random.DefaultOptions(fixedSeed))
	if err != nil {
		return nil, err
	}
	return func(t int) ([]float64, error) { return z.RawRowView(t), nil }, nil
}

func (b *base) step(g []time.Time, t int) float64 {
	return utils.StepFraction(g[t-1], g[t], b.dayCount)
}
