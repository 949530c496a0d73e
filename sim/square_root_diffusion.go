package sim

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcval/market"
)

// SquareRootDiffusion is the CIR mean-reverting process
//
//	dx = κ(θ - x)dt + σ√x dZ
//
// discretised with full-truncation Euler. The recursion runs on an auxiliary state that may
// turn negative; the published path is its positive part. Paths are therefore never negative,
// but they are not the state the next step reads, so rebuilding the recursion from the stored
// matrix does not reproduce it where the state went below zero.
type SquareRootDiffusion struct {
	*base
	kappa float64
	theta float64
}

// NewSquareRootDiffusion builds a CIR simulator. env additionally needs kappa and theta.
func NewSquareRootDiffusion(name string, env *market.Environment, corr *Correlation, opts ...Option) (*SquareRootDiffusion, error) {
	b, err := newBase(name, env, corr, opts)
	if err != nil {
		return nil, err
	}
	s := &SquareRootDiffusion{base: b}
	if s.kappa, err = env.Float(market.KeyKappa); err != nil {
		return nil, err
	}
	if s.theta, err = env.Float(market.KeyTheta); err != nil {
		return nil, err
	}
	b.gen = s.generate
	return s, nil
}

func (s *SquareRootDiffusion) Kappa() float64 { return s.kappa }
func (s *SquareRootDiffusion) Theta() float64 { return s.theta }

// Update applies p and clears the cached paths.
func (s *SquareRootDiffusion) Update(p Update) {
	if p.Kappa != nil {
		s.kappa = *p.Kappa
	}
	if p.Theta != nil {
		s.theta = *p.Theta
	}
	s.update(p)
}

func (s *SquareRootDiffusion) generate(paths *mat.Dense, g []time.Time, normals func(int) ([]float64, error), _ bool) error {
	_, n := paths.Dims()
	x := make([]float64, n)
	copy(x, paths.RawRowView(0))

	row0 := paths.RawRowView(0)
	for p := range row0 {
		row0[p] = math.Max(row0[p], 0)
	}

	sigma := s.volatility
	for t := 1; t < len(g); t++ {
		dt := s.step(g, t)
		z, err := normals(t)
		if err != nil {
			return err
		}
		sq := math.Sqrt(dt)
		cur := paths.RawRowView(t)
		for p := range x {
			pos := math.Max(x[p], 0)
			x[p] += s.kappa*(s.theta-pos)*dt + math.Sqrt(pos)*sigma*sq*z[p]
			cur[p] = math.Max(x[p], 0)
		}
	}
	return nil
}
