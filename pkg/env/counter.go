package env

import (
	"fmt"
	"slices"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

// Counter is a deterministic environment for exercising wrappers. Agent i
// observes value+10*i broadcast over ObsShape, where value is 1 at reset and
// increments every step. With Flicker set, odd values are observed as zero,
// which makes max-pooling distinguishable from taking the latest frame.
// Every step pays Reward per agent; an agent is done after its DoneAfter
// step count (EpisodeLen when unset).
type Counter struct {
	AgentNames []string
	ObsShape   []int
	Dtype      etensor.Type
	EpisodeLen int
	Reward     float64
	Flicker    bool
	DoneAfter  map[string]int

	value  int
	active []string
}

var _ ParallelEnv = (*Counter)(nil)

func (c *Counter) defaults() {
	if c.AgentNames == nil {
		c.AgentNames = []string{"agent_0", "agent_1"}
	}
	if c.ObsShape == nil {
		c.ObsShape = []int{2}
	}
	if c.Dtype == etensor.NULL {
		c.Dtype = etensor.UINT8
	}
	if c.EpisodeLen == 0 {
		c.EpisodeLen = 8
	}
	if c.Reward == 0 {
		c.Reward = 1.0
	}
}

func (c *Counter) obsFor(agentIdx int) etensor.Tensor {
	v := c.value + 10*agentIdx
	if c.Flicker && c.value%2 == 1 {
		v = 0
	}
	t := etensor.New(c.Dtype, c.ObsShape, nil, nil)
	for i := 0; i < t.Len(); i++ {
		t.SetFloat1D(i, float64(v))
	}
	return t
}

func (c *Counter) limit(id string) int {
	if n, ok := c.DoneAfter[id]; ok {
		return n
	}
	return c.EpisodeLen
}

func (c *Counter) Reset() (*ResetResult, error) {
	c.defaults()
	c.value = 1
	c.active = slices.Clone(c.AgentNames)
	obs := make(map[string]etensor.Tensor, len(c.AgentNames))
	for i, id := range c.AgentNames {
		obs[id] = c.obsFor(i)
	}
	return &ResetResult{Observations: obs, Agents: slices.Clone(c.active)}, nil
}

func (c *Counter) Step(actions map[string]any) (*StepResult, error) {
	if c.active == nil {
		panic("counter: Step called before Reset")
	}
	c.value++
	res := &StepResult{
		Observations: make(map[string]etensor.Tensor, len(c.active)),
		Rewards:      make(map[string]float64, len(c.active)),
		Dones:        make(map[string]bool, len(c.active)),
		Infos:        make(map[string]Info, len(c.active)),
	}
	var next []string
	for i, id := range c.AgentNames {
		if !slices.Contains(c.active, id) {
			continue
		}
		res.Observations[id] = c.obsFor(i)
		res.Rewards[id] = c.Reward
		done := c.value-1 >= c.limit(id)
		res.Dones[id] = done
		res.Infos[id] = Info{"value": c.value}
		if !done {
			next = append(next, id)
		}
	}
	c.active = next
	res.Agents = slices.Clone(next)
	return res, nil
}

func (c *Counter) Render(mode string) (string, error) {
	return fmt.Sprintf("counter: value=%d active=%d", c.value, len(c.active)), nil
}

func (c *Counter) Close() error { return nil }

func (c *Counter) ObservationSpaces() map[string]spaces.Space {
	c.defaults()
	out := make(map[string]spaces.Space, len(c.AgentNames))
	for _, id := range c.AgentNames {
		out[id] = spaces.NewBox(0, 255, c.ObsShape, c.Dtype)
	}
	return out
}

func (c *Counter) ActionSpaces() map[string]spaces.Space {
	c.defaults()
	out := make(map[string]spaces.Space, len(c.AgentNames))
	for _, id := range c.AgentNames {
		out[id] = &spaces.Discrete{N: 2}
	}
	return out
}

func (c *Counter) Agents() []string { return slices.Clone(c.active) }

func (c *Counter) PossibleAgents() []string {
	c.defaults()
	return slices.Clone(c.AgentNames)
}
