package agent

import (
	"math/rand"
	"testing"

	"github.com/emer/etable/etensor"

	"github.com/dkkim93/multisuit/pkg/spaces"
)

func TestRandomAgent(t *testing.T) {
	t.Run("test options", func(t *testing.T) {
		a := NewRandomAgent(WithID("test-agent"))
		if got := a.GetID(); got != "test-agent" {
			t.Errorf("agent.GetID() = %v, want %v", got, "test-agent")
		}

		// Default IDs must be unique
		if NewRandomAgent().GetID() == NewRandomAgent().GetID() {
			t.Error("Expected distinct default agent IDs")
		}
	})

	t.Run("test discrete sampling", func(t *testing.T) {
		a := NewRandomAgent(WithRand(rand.New(rand.NewSource(1))))
		space := &spaces.Discrete{N: 3}
		for i := 0; i < 50; i++ {
			act, err := a.Act(nil, space)
			if err != nil {
				t.Fatalf("Act failed: %v", err)
			}
			v, ok := act.(int)
			if !ok {
				t.Fatalf("Expected int action, got %T", act)
			}
			if v < 0 || v >= 3 {
				t.Errorf("Action %d outside 0..2", v)
			}
		}
	})

	t.Run("test box sampling", func(t *testing.T) {
		a := NewRandomAgent(WithRand(rand.New(rand.NewSource(1))))
		space := spaces.NewBox(-1, 1, []int{4}, etensor.FLOAT64)
		act, err := a.Act(nil, space)
		if err != nil {
			t.Fatalf("Act failed: %v", err)
		}
		sample, ok := act.(etensor.Tensor)
		if !ok {
			t.Fatalf("Expected tensor action, got %T", act)
		}
		if err := space.Contains(sample); err != nil {
			t.Errorf("Sample outside its space: %v", err)
		}
	})

	t.Run("test nil space", func(t *testing.T) {
		a := NewRandomAgent()
		if _, err := a.Act(nil, nil); err == nil {
			t.Error("Expected error for nil action space, got nil")
		}
	})
}
