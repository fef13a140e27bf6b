package wrappers

import (
	"fmt"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/env"
	"github.com/dkkim93/multisuit/pkg/spaces"
	"github.com/dkkim93/multisuit/pkg/transforms"
)

// Dtype casts every observation to a fixed element type. Numeric truncation
// follows standard conversion rules and is silent.
type Dtype struct {
	*ObservationWrapper
	to etensor.Type
}

var _ env.ParallelEnv = (*Dtype)(nil)

func NewDtype(e env.ParallelEnv, to etensor.Type) (*Dtype, error) {
	tr, err := transforms.NewDtype(e.ObservationSpaces(), to)
	if err != nil {
		return nil, fmt.Errorf("dtype: %w", err)
	}
	cast := make(map[string]spaces.Space, len(e.ObservationSpaces()))
	for agent, s := range e.ObservationSpaces() {
		if box, ok := s.(*spaces.Box); ok {
			cast[agent] = spaces.NewBox(box.Low, box.High, box.Shp, to)
			continue
		}
		cast[agent] = s
	}
	return &Dtype{
		ObservationWrapper: newObservationWrapper(e, tr, cast),
		to:                 to,
	}, nil
}
