// Package random generates variance-reduced standard normal variates for path simulation.
package random

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/mcval/config"
	"github.com/meenmo/mcval/market"
)

// Shape is the (factors, dates, paths) extent of a draw.
type Shape struct {
	Factors int
	Dates   int
	Paths   int
}

// Options toggles the variance-reduction steps and seeding.
type Options struct {
	Antithetic     bool
	MomentMatching bool
	FixedSeed      bool
	// Seed is used when FixedSeed is set.
	Seed uint64
}

// DefaultOptions reads the active configuration.
func DefaultOptions(fixedSeed bool) Options {
	c := config.GetConfig()
	return Options{
		Antithetic:     c.Antithetic,
		MomentMatching: c.MomentMatching,
		FixedSeed:      fixedSeed,
		Seed:           c.Seed,
	}
}

// Cube holds one dates x paths matrix per factor.
type Cube []*mat.Dense

// Matrix returns the single-factor (dates x paths) view, or nil for multi-factor cubes.
func (c Cube) Matrix() *mat.Dense {
	if len(c) != 1 {
		return nil
	}
	return c[0]
}

// Shape reports the extent of the cube.
func (c Cube) Shape() Shape {
	if len(c) == 0 {
		return Shape{}
	}
	r, p := c[0].Dims()
	return Shape{Factors: len(c), Dates: r, Paths: p}
}

// NewSource returns a reproducible PCG stream when fixedSeed is set, otherwise a randomly
// seeded one. Different streams with the same seed are independent.
func NewSource(fixedSeed bool, seed, stream uint64) rand.Source {
	if fixedSeed {
		return rand.NewPCG(seed, stream)
	}
	return rand.NewPCG(rand.Uint64(), rand.Uint64())
}

// StandardNormal draws a cube of standard normal variates.
//
// With Antithetic, half of the paths are drawn and the negated copies are appended along the
// path axis. With MomentMatching, the whole cube is shifted and scaled to sample mean 0 and
// population standard deviation 1.
func StandardNormal(shape Shape, opts Options) (Cube, error) {
	return draw(shape, opts, 0)
}

// StandardNormalStream is StandardNormal on a separate stream of the same seed. Simulators use
// it for secondary draws (jump sizes) so they do not replay the diffusion draws.
func StandardNormalStream(shape Shape, opts Options, stream uint64) (Cube, error) {
	return draw(shape, opts, stream)
}

// StandardNormalMatrix is the single-factor form returning dates x paths.
func StandardNormalMatrix(dates, paths int, opts Options) (*mat.Dense, error) {
	cube, err := StandardNormal(Shape{Factors: 1, Dates: dates, Paths: paths}, opts)
	if err != nil {
		return nil, err
	}
	return cube.Matrix(), nil
}

func draw(shape Shape, opts Options, stream uint64) (Cube, error) {
	if shape.Factors <= 0 || shape.Dates <= 0 || shape.Paths <= 0 {
		return nil, market.Invalid("shape", "all dimensions must be positive, got %+v", shape)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: NewSource(opts.FixedSeed, opts.Seed, stream)}

	block := shape.Dates * shape.Paths
	data := make([]float64, shape.Factors*block)

	drawn := shape.Paths
	if opts.Antithetic {
		drawn = (shape.Paths + 1) / 2
	}
	for f := 0; f < shape.Factors; f++ {
		for d := 0; d < shape.Dates; d++ {
			row := data[f*block+d*shape.Paths : f*block+(d+1)*shape.Paths]
			for p := 0; p < drawn; p++ {
				row[p] = normal.Rand()
			}
			if opts.Antithetic {
				for p := drawn; p < shape.Paths; p++ {
					row[p] = -row[p-drawn]
				}
			}
		}
	}

	if opts.MomentMatching {
		mean, std := stat.PopMeanStdDev(data, nil)
		if opts.Antithetic && shape.Paths%2 == 0 {
			// the mirrored sample has mean zero; keep the negation exact
			mean = 0
		}
		if std > 0 {
			for i := range data {
				data[i] = (data[i] - mean) / std
			}
		}
	}

	cube := make(Cube, shape.Factors)
	for f := range cube {
		cube[f] = mat.NewDense(shape.Dates, shape.Paths, data[f*block:(f+1)*block])
	}
	return cube, nil
}
