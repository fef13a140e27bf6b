package wrappers

import (
	"fmt"

	"github.com/dkkim93/multisuit/pkg/env"
	"github.com/dkkim93/multisuit/pkg/spaces"
	"github.com/dkkim93/multisuit/pkg/transforms"
)

// FrameStack makes each agent observe its last numFrames frames at once:
// concatenated along the last axis for Box spaces, encoded as a base-N
// positional code for Discrete spaces. The buffer is zero-filled at reset,
// so the first returned observation already has the stacked shape with the
// initial frame in the trailing slot.
type FrameStack struct {
	*ObservationWrapper
	numFrames int
}

var _ env.ParallelEnv = (*FrameStack)(nil)

func NewFrameStack(e env.ParallelEnv, numFrames int) (*FrameStack, error) {
	tr, err := transforms.NewStack(e.ObservationSpaces(), numFrames)
	if err != nil {
		return nil, fmt.Errorf("frame stack: %w", err)
	}
	stacked := make(map[string]spaces.Space, len(e.ObservationSpaces()))
	for agent, s := range e.ObservationSpaces() {
		ss, err := spaces.Stacked(s, numFrames)
		if err != nil {
			return nil, fmt.Errorf("frame stack: agent %s: %w", agent, err)
		}
		stacked[agent] = ss
	}
	return &FrameStack{
		ObservationWrapper: newObservationWrapper(e, tr, stacked),
		numFrames:          numFrames,
	}, nil
}

func (w *FrameStack) NumFrames() int { return w.numFrames }
