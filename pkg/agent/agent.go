// Package agent provides per-agent policies for driving episodes through a
// wrapped environment.
package agent

import (
	"errors"
	"math/rand"

	"github.com/emer/etable/etensor"
	"github.com/google/uuid"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

// Agent maps one observation to one action for a single environment agent.
type Agent interface {
	GetID() string
	Act(obs etensor.Tensor, space spaces.Space) (any, error)
}

type Params struct {
	ID  string
	Rng *rand.Rand
}

type Option func(*Params)

func WithID(id string) Option {
	return func(p *Params) {
		p.ID = id
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(p *Params) {
		p.Rng = rng
	}
}

func defaultParams() *Params {
	return &Params{
		ID:  "agent-" + uuid.New().String(),
		Rng: rand.New(rand.NewSource(rand.Int63())),
	}
}

// RandomAgent samples uniformly from the action space, ignoring observations.
type RandomAgent struct {
	id  string
	rng *rand.Rand
}

func NewRandomAgent(opts ...Option) *RandomAgent {
	params := defaultParams()
	for _, opt := range opts {
		opt(params)
	}
	return &RandomAgent{id: params.ID, rng: params.Rng}
}

func (a *RandomAgent) GetID() string { return a.id }

func (a *RandomAgent) Act(obs etensor.Tensor, space spaces.Space) (any, error) {
	if space == nil {
		return nil, errors.New("random agent: nil action space")
	}
	return space.Sample(a.rng), nil
}
