package wrappers

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/env"
	"github.com/dkkim93/multisuit/pkg/transforms"
)

// FrameSkip repeats each action numFrames times against the wrapped
// environment. Rewards are summed over the window, dones and infos keep the
// latest sub-step's values, and the returned observation is the element-wise
// maximum of the last two raw frames seen per agent, which merges the
// alternating render artifacts of flickering frame-based environments.
//
// numFrames must be at least 2: a shorter window never produces a second
// frame to pool against. The window ends early once every agent is done; in
// that case pooling covers the last two frames actually seen (or the single
// frame against zeros when only one sub-step ran).
type FrameSkip struct {
	*Base
	numFrames int
	prev      map[string]etensor.Tensor
	last      map[string]etensor.Tensor
	rng       *rand.Rand
	sample    *rand.Rand
}

var _ env.ParallelEnv = (*FrameSkip)(nil)
var _ env.Seeder = (*FrameSkip)(nil)

func NewFrameSkip(e env.ParallelEnv, numFrames int) (*FrameSkip, error) {
	if numFrames < 2 {
		return nil, fmt.Errorf("%w: frame skip needs num frames >= 2, got %d",
			transforms.ErrInvalidParam, numFrames)
	}
	return &FrameSkip{
		Base:      NewBase(e),
		numFrames: numFrames,
		rng:       rand.New(rand.NewSource(rand.Int63())),
		sample:    rand.New(rand.NewSource(rand.Int63())),
	}, nil
}

func (w *FrameSkip) NumFrames() int { return w.numFrames }

func (w *FrameSkip) Reset() (*env.ResetResult, error) {
	res, err := w.Base.Reset()
	if err != nil {
		return nil, err
	}
	w.prev = make(map[string]etensor.Tensor, len(w.obsSpaces))
	w.last = make(map[string]etensor.Tensor, len(w.obsSpaces))
	for agent, s := range w.obsSpaces {
		w.prev[agent] = s.Zeros()
		w.last[agent] = s.Zeros()
	}
	return res, nil
}

func (w *FrameSkip) Step(actions map[string]any) (*env.StepResult, error) {
	if w.prev == nil {
		panic("frame skip: Step called before Reset")
	}
	// The snapshot taken before the sub-step loop decides which agents the
	// aggregated result reports on, even if some terminate mid-window.
	snapshot := w.Agents()
	rewards := make(map[string]float64, len(snapshot))
	for _, agent := range snapshot {
		rewards[agent] = 0
	}
	dones := make(map[string]bool, len(snapshot))
	infos := make(map[string]env.Info, len(snapshot))

	for i := 0; i < w.numFrames; i++ {
		res, err := w.Base.Step(actions)
		if err != nil {
			return nil, err
		}
		for agent, obs := range res.Observations {
			prev, ok := w.prev[agent]
			if !ok {
				panic(fmt.Sprintf("frame skip: no buffer for agent %q", agent))
			}
			prev.CopyFrom(w.last[agent])
			w.last[agent].CopyFrom(obs)
		}
		for agent, r := range res.Rewards {
			rewards[agent] += r
		}
		for agent, d := range res.Dones {
			dones[agent] = d
		}
		for agent, inf := range res.Infos {
			infos[agent] = inf
		}
		if allDone(res.Dones) {
			break
		}
	}

	obs := make(map[string]etensor.Tensor, len(snapshot))
	for _, agent := range snapshot {
		obs[agent] = maxPool(w.prev[agent], w.last[agent])
	}
	return &env.StepResult{
		Observations: obs,
		Rewards:      rewards,
		Dones:        dones,
		Infos:        infos,
		Agents:       snapshot,
	}, nil
}

// Seed seeds the three randomness sources reachable from this wrapper: the
// wrapped environment (when it is seedable), the wrapper's general source,
// and its sampling source.
func (w *FrameSkip) Seed(seed int64) error {
	w.rng = rand.New(rand.NewSource(seed))
	w.sample = rand.New(rand.NewSource(seed + 1))
	if s, ok := w.env.(env.Seeder); ok {
		return s.Seed(seed)
	}
	return nil
}

func allDone(dones map[string]bool) bool {
	if len(dones) == 0 {
		return true
	}
	for _, d := range dones {
		if !d {
			return false
		}
	}
	return true
}

// maxPool returns the element-wise maximum of two equally-shaped frames.
func maxPool(a, b etensor.Tensor) etensor.Tensor {
	out := a.Clone()
	for i := 0; i < out.Len(); i++ {
		out.SetFloat1D(i, math.Max(a.FloatVal1D(i), b.FloatVal1D(i)))
	}
	return out
}
