package sim

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcval/market"
)

// GBM is geometric Brownian motion under the risk-neutral drift of the discount curve:
//
//	S[t] = S[t-1] * exp((r - σ²/2)Δt + σ√Δt Z)
type GBM struct {
	*base
}

// NewGBM builds a GBM simulator from env. corr may be nil for an uncorrelated factor.
func NewGBM(name string, env *market.Environment, corr *Correlation, opts ...Option) (*GBM, error) {
	b, err := newBase(name, env, corr, opts)
	if err != nil {
		return nil, err
	}
	s := &GBM{base: b}
	b.gen = s.generate
	return s, nil
}

// Update applies p and clears the cached paths.
func (s *GBM) Update(p Update) { s.update(p) }

func (s *GBM) generate(paths *mat.Dense, g []time.Time, normals func(int) ([]float64, error), _ bool) error {
	r := s.curve.ShortRate()
	sigma := s.volatility
	for t := 1; t < len(g); t++ {
		dt := s.step(g, t)
		z, err := normals(t)
		if err != nil {
			return err
		}
		drift := (r - 0.5*sigma*sigma) * dt
		diffusion := sigma * math.Sqrt(dt)
		prev, cur := paths.RawRowView(t-1), paths.RawRowView(t)
		for p := range cur {
			cur[p] = prev[p] * math.Exp(drift+diffusion*z[p])
		}
	}
	return nil
}
