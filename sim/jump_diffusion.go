package sim

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/random"
)

// Streams of the fixed seed reserved for the jump component of the first factor. Factor i of a
// correlation structure uses these offset by 2i, so jumps stay independent across factors.
const (
	jumpSizeStream  = 1
	jumpCountStream = 2
)

// JumpDiffusion is Merton's jump diffusion: a GBM with log-normally sized jumps arriving at
// Poisson rate Lambda, drift-compensated by rj = λ(exp(μ + δ²/2) - 1).
type JumpDiffusion struct {
	*base
	lambda float64
	mu     float64
	delta  float64
}

// NewJumpDiffusion builds a jump-diffusion simulator. env additionally needs lambda, mu and
// delta.
func NewJumpDiffusion(name string, env *market.Environment, corr *Correlation, opts ...Option) (*JumpDiffusion, error) {
	b, err := newBase(name, env, corr, opts)
	if err != nil {
		return nil, err
	}
	s := &JumpDiffusion{base: b}
	if s.lambda, err = env.Float(market.KeyLambda); err != nil {
		return nil, err
	}
	if s.mu, err = env.Float(market.KeyMu); err != nil {
		return nil, err
	}
	if s.delta, err = env.Float(market.KeyDelta); err != nil {
		return nil, err
	}
	if s.lambda < 0 {
		return nil, market.Invalid(market.KeyLambda, "jump intensity must be non-negative, got %v", s.lambda)
	}
	b.gen = s.generate
	return s, nil
}

func (s *JumpDiffusion) Lambda() float64 { return s.lambda }
func (s *JumpDiffusion) Mu() float64     { return s.mu }
func (s *JumpDiffusion) Delta() float64  { return s.delta }

// Update applies p and clears the cached paths.
func (s *JumpDiffusion) Update(p Update) {
	if p.Lambda != nil {
		s.lambda = *p.Lambda
	}
	if p.Mu != nil {
		s.mu = *p.Mu
	}
	if p.Delta != nil {
		s.delta = *p.Delta
	}
	s.update(p)
}

func (s *JumpDiffusion) generate(paths *mat.Dense, g []time.Time, normals func(int) ([]float64, error), fixedSeed bool) error {
	opts := random.DefaultOptions(fixedSeed)
	sizeStream, countStream := s.jumpStreams()
	sizes, err := random.StandardNormalStream(random.Shape{Factors: 1, Dates: len(g), Paths: s.paths}, opts, sizeStream)
	if err != nil {
		return err
	}
	jumpNormals := sizes.Matrix()
	counts := random.NewSource(fixedSeed, opts.Seed, countStream)

	r := s.curve.ShortRate()
	sigma := s.volatility
	rj := s.lambda * (math.Exp(s.mu+0.5*s.delta*s.delta) - 1)

	for t := 1; t < len(g); t++ {
		dt := s.step(g, t)
		z1, err := normals(t)
		if err != nil {
			return err
		}
		z2 := jumpNormals.RawRowView(t)
		poisson := distuv.Poisson{Lambda: s.lambda * dt, Src: counts}

		drift := (r - rj - 0.5*sigma*sigma) * dt
		diffusion := sigma * math.Sqrt(dt)
		prev, cur := paths.RawRowView(t-1), paths.RawRowView(t)
		for p := range cur {
			n := poisson.Rand()
			cur[p] = prev[p] * (math.Exp(drift+diffusion*z1[p]) + (math.Exp(s.mu+s.delta*z2[p])-1)*n)
		}
	}
	return nil
}

func (s *JumpDiffusion) jumpStreams() (size, count uint64) {
	var offset uint64
	if s.corr != nil {
		if i, ok := s.corr.Index(s.name); ok {
			offset = 2 * uint64(i)
		}
	}
	return jumpSizeStream + offset, jumpCountStream + offset
}
