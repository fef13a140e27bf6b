package wrappers

import (
	"fmt"

	"github.com/dkkim93/multisuit/pkg/env"
	"github.com/dkkim93/multisuit/pkg/transforms"
)

// DelayObservations holds every observation back by a fixed number of steps:
// each agent sees what happened delay steps ago, with zero-valued frames
// during the warm-up.
type DelayObservations struct {
	*ObservationWrapper
	delay int
}

var _ env.ParallelEnv = (*DelayObservations)(nil)

func NewDelayObservations(e env.ParallelEnv, delay int) (*DelayObservations, error) {
	tr, err := transforms.NewDelay(e.ObservationSpaces(), delay)
	if err != nil {
		return nil, fmt.Errorf("delay observations: %w", err)
	}
	return &DelayObservations{
		ObservationWrapper: newObservationWrapper(e, tr, nil),
		delay:              delay,
	}, nil
}

func (w *DelayObservations) Delay() int { return w.delay }
