// Package wrappers layers observation transforms over any ParallelEnv
// without touching its action interface. Every wrapper is a drop-in
// replacement: same reset/step protocol, observation spaces swapped to
// reflect the transform.
package wrappers

import (
	"slices"

	"github.com/dkkim93/multisuit/pkg/env"
	"github.com/dkkim93/multisuit/pkg/spaces"
	"github.com/dkkim93/multisuit/pkg/transforms"
)

// Base delegates the full ParallelEnv protocol to a wrapped environment and
// keeps a local copy of the active-agent set from the last reset or step.
type Base struct {
	env       env.ParallelEnv
	obsSpaces map[string]spaces.Space
	actSpaces map[string]spaces.Space
	agents    []string
}

var _ env.ParallelEnv = (*Base)(nil)

func NewBase(e env.ParallelEnv) *Base {
	return &Base{
		env:       e,
		obsSpaces: e.ObservationSpaces(),
		actSpaces: e.ActionSpaces(),
	}
}

func (b *Base) Reset() (*env.ResetResult, error) {
	res, err := b.env.Reset()
	if err != nil {
		return nil, err
	}
	b.agents = slices.Clone(res.Agents)
	return res, nil
}

func (b *Base) Step(actions map[string]any) (*env.StepResult, error) {
	res, err := b.env.Step(actions)
	if err != nil {
		return nil, err
	}
	b.agents = slices.Clone(res.Agents)
	return res, nil
}

func (b *Base) Render(mode string) (string, error) { return b.env.Render(mode) }
func (b *Base) Close() error { return b.env.Close() }

func (b *Base) ObservationSpaces() map[string]spaces.Space { return b.obsSpaces }
func (b *Base) ActionSpaces() map[string]spaces.Space { return b.actSpaces }
func (b *Base) Agents() []string { return slices.Clone(b.agents) }
func (b *Base) PossibleAgents() []string { return b.env.PossibleAgents() }

// ObservationWrapper applies one ObservationTransform to every observation
// crossing reset or step. Actions, rewards, dones and infos pass through
// unmodified.
type ObservationWrapper struct {
	*Base
	transform transforms.ObservationTransform
}

func newObservationWrapper(e env.ParallelEnv, tr transforms.ObservationTransform,
	obsSpaces map[string]spaces.Space) *ObservationWrapper {
	b := NewBase(e)
	if obsSpaces != nil {
		b.obsSpaces = obsSpaces
	}
	return &ObservationWrapper{Base: b, transform: tr}
}

// NewIdentity wraps e with the no-op transform. Useful for exercising pure
// delegation.
func NewIdentity(e env.ParallelEnv) *ObservationWrapper {
	return newObservationWrapper(e, transforms.Identity{}, nil)
}

func (w *ObservationWrapper) Reset() (*env.ResetResult, error) {
	// Transform state must be rebuilt before the first observation of the
	// episode flows through Modify.
	if err := w.transform.Reset(w.env.PossibleAgents()); err != nil {
		return nil, err
	}
	res, err := w.Base.Reset()
	if err != nil {
		return nil, err
	}
	for agent, obs := range res.Observations {
		mod, err := w.transform.Modify(agent, obs)
		if err != nil {
			return nil, err
		}
		res.Observations[agent] = mod
	}
	return res, nil
}

func (w *ObservationWrapper) Step(actions map[string]any) (*env.StepResult, error) {
	res, err := w.Base.Step(actions)
	if err != nil {
		return nil, err
	}
	for agent, obs := range res.Observations {
		mod, err := w.transform.Modify(agent, obs)
		if err != nil {
			return nil, err
		}
		res.Observations[agent] = mod
	}
	return res, nil
}
