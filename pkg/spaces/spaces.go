// Package spaces describes the shape, element type and bounds of per-agent
// observation and action values.
package spaces

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/emer/etable/etensor"
)

var ErrUnsupportedSpace = errors.New("unsupported observation space")

// Space is a per-agent shape/dtype descriptor.
type Space interface {
	Shape() []int
	Dtype() etensor.Type
	// Contains validates a single sample against the space.
	Contains(obs etensor.Tensor) error
	// Zeros returns a zero-valued tensor matching the space.
	Zeros() etensor.Tensor
	// Sample draws a uniformly random value from the space. Box spaces
	// return an etensor.Tensor, Discrete spaces an int.
	Sample(rng *rand.Rand) any
}

// Box is a bounded numeric array space with uniform scalar bounds.
type Box struct {
	Low  float64
	High float64
	Shp  []int
	Dt   etensor.Type
}

func NewBox(low, high float64, shape []int, dtype etensor.Type) *Box {
	return &Box{Low: low, High: high, Shp: slices.Clone(shape), Dt: dtype}
}

func (b *Box) Shape() []int { return b.Shp }
func (b *Box) Dtype() etensor.Type { return b.Dt }
func (b *Box) Zeros() etensor.Tensor { return etensor.New(b.Dt, b.Shp, nil, nil) }

func (b *Box) Contains(obs etensor.Tensor) error {
	if obs.DataType() != b.Dt {
		return fmt.Errorf("box: sample dtype %v, want %v", obs.DataType(), b.Dt)
	}
	if !slices.Equal(obs.Shapes(), b.Shp) {
		return fmt.Errorf("box: sample shape %v, want %v", obs.Shapes(), b.Shp)
	}
	for i := 0; i < obs.Len(); i++ {
		if v := obs.FloatVal1D(i); v < b.Low || v > b.High {
			return fmt.Errorf("box: value %v at offset %d outside [%v, %v]", v, i, b.Low, b.High)
		}
	}
	return nil
}

func (b *Box) Sample(rng *rand.Rand) any {
	t := b.Zeros()
	for i := 0; i < t.Len(); i++ {
		if math.IsInf(b.Low, 0) || math.IsInf(b.High, 0) {
			t.SetFloat1D(i, rng.NormFloat64())
			continue
		}
		t.SetFloat1D(i, b.Low+rng.Float64()*(b.High-b.Low))
	}
	return t
}

// Discrete is a finite space of N values, 0..N-1. Samples and observations
// are scalar INT64 tensors of shape [1]; Sample returns a plain int for use
// as an action.
type Discrete struct {
	N int
}

func (d *Discrete) Shape() []int { return []int{1} }
func (d *Discrete) Dtype() etensor.Type { return etensor.INT64 }

func (d *Discrete) Zeros() etensor.Tensor {
	return etensor.New(etensor.INT64, []int{1}, nil, nil)
}

func (d *Discrete) Contains(obs etensor.Tensor) error {
	if obs.Len() != 1 {
		return fmt.Errorf("discrete: sample has %d elements, want 1", obs.Len())
	}
	v := obs.FloatVal1D(0)
	if v != math.Trunc(v) || v < 0 || v >= float64(d.N) {
		return fmt.Errorf("discrete: value %v outside 0..%d", v, d.N-1)
	}
	return nil
}

func (d *Discrete) Sample(rng *rand.Rand) any { return rng.Intn(d.N) }

// IsNumeric reports whether dt is a concrete numeric element type.
func IsNumeric(dt etensor.Type) bool {
	switch dt {
	case etensor.UINT8, etensor.INT8, etensor.UINT16, etensor.INT16,
		etensor.UINT32, etensor.INT32, etensor.UINT64, etensor.INT64,
		etensor.FLOAT32, etensor.FLOAT64:
		return true
	}
	return false
}

// Stacked returns the observation space for k stacked frames of s. Box
// spaces of rank 1-3 grow along the last axis; Discrete spaces become a
// base-N positional code of the last k values.
func Stacked(s Space, k int) (Space, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: stack size must be positive, got %d", ErrUnsupportedSpace, k)
	}
	switch sp := s.(type) {
	case *Box:
		nd := len(sp.Shp)
		if nd < 1 || nd > 3 {
			return nil, fmt.Errorf("%w: stacking needs rank 1-3, got rank %d", ErrUnsupportedSpace, nd)
		}
		shp := slices.Clone(sp.Shp)
		shp[nd-1] *= k
		return NewBox(sp.Low, sp.High, shp, sp.Dt), nil
	case *Discrete:
		if sp.N <= 0 {
			return nil, fmt.Errorf("%w: discrete space must be finite and non-empty", ErrUnsupportedSpace)
		}
		n := int64(1)
		for i := 0; i < k; i++ {
			if n > math.MaxInt64/int64(sp.N) {
				return nil, fmt.Errorf("%w: stacked cardinality %d^%d overflows", ErrUnsupportedSpace, sp.N, k)
			}
			n *= int64(sp.N)
		}
		return &Discrete{N: int(n)}, nil
	default:
		return nil, fmt.Errorf("%w: stacking needs Box or Discrete, got %T", ErrUnsupportedSpace, s)
	}
}
