// Package env defines the parallel multi-agent environment protocol shared by
// environments and wrappers: all agents act simultaneously, and every result
// is keyed by agent ID.
package env

import (
	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

// Info carries auxiliary diagnostic values for one agent transition.
type Info map[string]any

// ResetResult is the outcome of starting a new episode.
type ResetResult struct {
	Observations map[string]etensor.Tensor
	Agents       []string
}

// StepResult is the outcome of one environment transition.
type StepResult struct {
	Observations map[string]etensor.Tensor
	Rewards      map[string]float64
	Dones        map[string]bool
	Infos        map[string]Info
	// Agents is the active set after the transition. It is the authoritative
	// copy: callers hold their own clone instead of aliasing environment
	// internals.
	Agents []string
}

// ParallelEnv is the simultaneous-action multi-agent environment protocol.
// Reset must be called before the first Step of every episode; stepping an
// environment out of order is a contract violation.
type ParallelEnv interface {
	Reset() (*ResetResult, error)
	Step(actions map[string]any) (*StepResult, error)
	Render(mode string) (string, error)
	Close() error
	ObservationSpaces() map[string]spaces.Space
	ActionSpaces() map[string]spaces.Space
	// Agents returns a copy of the currently active set.
	Agents() []string
	// PossibleAgents returns every agent that can ever appear in an episode.
	PossibleAgents() []string
}

// Seeder is implemented by environments and wrappers with seedable randomness.
type Seeder interface {
	Seed(seed int64) error
}
