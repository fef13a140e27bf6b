// Package transforms holds the stateful per-agent observation transforms
// behind the wrapper layer. Each transform is re-initialized at episode start
// via Reset and consumes one observation at a time via Modify.
package transforms

import (
	"errors"

	"github.com/emer/etable/etensor"
)

var ErrInvalidParam = errors.New("invalid transform parameter")

// ObservationTransform is the capability interface every observation wrapper
// is built on. Implementations: Stack, Delay, Dtype, Identity.
type ObservationTransform interface {
	// Reset re-initializes per-agent state for a new episode. It must run
	// before any Modify call of the same episode.
	Reset(agents []string) error
	// Modify consumes one observation for agent and returns the transformed
	// value. Returned tensors are safe for the caller to retain across steps.
	Modify(agent string, obs etensor.Tensor) (etensor.Tensor, error)
}

// Identity passes observations through untouched.
type Identity struct{}

func (Identity) Reset(agents []string) error { return nil }

func (Identity) Modify(agent string, obs etensor.Tensor) (etensor.Tensor, error) {
	return obs, nil
}
