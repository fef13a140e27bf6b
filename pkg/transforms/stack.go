package transforms

import (
	"fmt"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

// Stack keeps the last K observations per agent. Box observations live in a
// single concatenated buffer grown along the last axis, zero-filled at reset
// so the stacked shape is stable from the first frame on. Discrete
// observations are kept as a base-N positional code of the last K values.
type Stack struct {
	frames int
	base   map[string]spaces.Space
	bufs   map[string]etensor.Tensor
	codes  map[string]int64
	mods   map[string]int64
}

func NewStack(base map[string]spaces.Space, numFrames int) (*Stack, error) {
	if numFrames <= 0 {
		return nil, fmt.Errorf("%w: stack size must be a positive int, got %d", ErrInvalidParam, numFrames)
	}
	for agent, s := range base {
		if _, err := spaces.Stacked(s, numFrames); err != nil {
			return nil, fmt.Errorf("agent %s: %w", agent, err)
		}
	}
	return &Stack{frames: numFrames, base: base}, nil
}

func (t *Stack) Reset(agents []string) error {
	t.bufs = make(map[string]etensor.Tensor, len(agents))
	t.codes = make(map[string]int64, len(agents))
	t.mods = make(map[string]int64, len(agents))
	for _, agent := range agents {
		s, ok := t.base[agent]
		if !ok {
			return fmt.Errorf("stack: no observation space for agent %q", agent)
		}
		switch sp := s.(type) {
		case *spaces.Box:
			stacked, err := spaces.Stacked(sp, t.frames)
			if err != nil {
				return err
			}
			t.bufs[agent] = stacked.Zeros()
		case *spaces.Discrete:
			t.codes[agent] = 0
			mod := int64(1)
			for i := 0; i < t.frames; i++ {
				mod *= int64(sp.N)
			}
			t.mods[agent] = mod
		}
	}
	return nil
}

func (t *Stack) Modify(agent string, obs etensor.Tensor) (etensor.Tensor, error) {
	switch sp := t.base[agent].(type) {
	case *spaces.Box:
		buf, ok := t.bufs[agent]
		if !ok {
			panic(fmt.Sprintf("stack: Modify for agent %q before Reset", agent))
		}
		shiftAppend(buf, obs, sp.Shape(), t.frames)
		return buf.Clone(), nil
	case *spaces.Discrete:
		mod, ok := t.mods[agent]
		if !ok {
			panic(fmt.Sprintf("stack: Modify for agent %q before Reset", agent))
		}
		v := int64(obs.FloatVal1D(0))
		t.codes[agent] = (t.codes[agent]*int64(sp.N) + v) % mod
		out := etensor.New(etensor.INT64, []int{1}, nil, nil)
		out.SetFloat1D(0, float64(t.codes[agent]))
		return out, nil
	default:
		return nil, fmt.Errorf("stack: no observation space for agent %q", agent)
	}
}

// shiftAppend drops the oldest frame from buf and writes obs into the
// trailing slot along the last axis. Buffers are row-major, so every
// leading-index "row" holds k contiguous frame slices of width d. A shape
// mismatch between buf and obs is a wrapper contract violation and panics.
func shiftAppend(buf, obs etensor.Tensor, baseShape []int, k int) {
	if obs.Len()*k != buf.Len() {
		panic(fmt.Sprintf("stack: observation shape %v does not match stack buffer shape %v",
			obs.Shapes(), buf.Shapes()))
	}
	d := baseShape[len(baseShape)-1]
	row := d * k
	rows := buf.Len() / row
	for r := 0; r < rows; r++ {
		off := r * row
		for i := 0; i < row-d; i++ {
			buf.SetFloat1D(off+i, buf.FloatVal1D(off+i+d))
		}
		for i := 0; i < d; i++ {
			buf.SetFloat1D(off+row-d+i, obs.FloatVal1D(r*d+i))
		}
	}
}
