package transforms

import (
	"errors"
	"fmt"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

var ErrInvalidDtype = errors.New("dtype must be a concrete numeric element type")

// CheckDtype validates that dt is usable as a cast target for samples of
// space s.
func CheckDtype(s spaces.Space, dt etensor.Type) error {
	if !spaces.IsNumeric(dt) {
		return fmt.Errorf("%w: got %v", ErrInvalidDtype, dt)
	}
	return nil
}

// CastObservation returns an element-wise copy of obs with element type dt.
// Precision loss follows Go conversion rules and is silent.
func CastObservation(obs etensor.Tensor, dt etensor.Type) etensor.Tensor {
	out := etensor.New(dt, obs.Shapes(), nil, nil)
	out.CopyFrom(obs)
	return out
}

// Dtype casts every observation to a fixed element type. It carries no
// per-agent state.
type Dtype struct {
	To etensor.Type
}

func NewDtype(spcs map[string]spaces.Space, to etensor.Type) (*Dtype, error) {
	for agent, s := range spcs {
		if err := CheckDtype(s, to); err != nil {
			return nil, fmt.Errorf("agent %s: %w", agent, err)
		}
	}
	return &Dtype{To: to}, nil
}

func (d *Dtype) Reset(agents []string) error { return nil }

func (d *Dtype) Modify(agent string, obs etensor.Tensor) (etensor.Tensor, error) {
	return CastObservation(obs, d.To), nil
}
