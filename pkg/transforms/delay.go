package transforms

import (
	"fmt"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

// Delayer is a capacity-bounded FIFO of pending observations for one agent.
// Until the queue grows past the delay it emits zero placeholders; afterwards
// every Add returns the observation from delay steps ago and the queue length
// stays pinned at the delay.
type Delayer struct {
	delay int
	zero  etensor.Tensor
	queue []etensor.Tensor
}

func NewDelayer(s spaces.Space, delay int) *Delayer {
	return &Delayer{delay: delay, zero: s.Zeros()}
}

func (d *Delayer) Add(obs etensor.Tensor) etensor.Tensor {
	d.queue = append(d.queue, obs.Clone())
	if len(d.queue) > d.delay {
		head := d.queue[0]
		d.queue = d.queue[1:]
		return head
	}
	return d.zero.Clone()
}

func (d *Delayer) Len() int { return len(d.queue) }

// Delay holds back each agent's observations by a fixed number of steps,
// emitting zero-valued placeholders during the warm-up.
type Delay struct {
	delay  int
	base   map[string]spaces.Space
	queues map[string]*Delayer
}

func NewDelay(base map[string]spaces.Space, delay int) (*Delay, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: delay must be non-negative, got %d", ErrInvalidParam, delay)
	}
	return &Delay{delay: delay, base: base}, nil
}

func (t *Delay) Reset(agents []string) error {
	t.queues = make(map[string]*Delayer, len(agents))
	for _, agent := range agents {
		s, ok := t.base[agent]
		if !ok {
			return fmt.Errorf("delay: no observation space for agent %q", agent)
		}
		t.queues[agent] = NewDelayer(s, t.delay)
	}
	return nil
}

func (t *Delay) Modify(agent string, obs etensor.Tensor) (etensor.Tensor, error) {
	q, ok := t.queues[agent]
	if !ok {
		panic(fmt.Sprintf("delay: Modify for agent %q before Reset", agent))
	}
	return q.Add(obs), nil
}
