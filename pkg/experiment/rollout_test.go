package experiment

import (
	"context"
	"testing"
	"time"

	"github.com/dkkim93/multisuit/pkg/agent"
	"github.com/dkkim93/multisuit/pkg/env"
	"github.com/dkkim93/multisuit/pkg/messaging"
)

func newTestRollout(t *testing.T, episodes int, broker messaging.Broker) *Rollout {
	t.Helper()
	e := &env.Counter{EpisodeLen: 5}
	policies := make(map[string]agent.Agent)
	for _, id := range e.PossibleAgents() {
		policies[id] = agent.NewRandomAgent(agent.WithID(id))
	}
	r, err := NewRollout(e, policies, episodes, broker)
	if err != nil {
		t.Fatalf("NewRollout failed: %v", err)
	}
	return r
}

func TestRollout(t *testing.T) {
	t.Run("test episode results", func(t *testing.T) {
		broker := messaging.NewBroker()
		t.Cleanup(func() {
			broker.Reset()
		})
		ch := make(chan messaging.EpisodeResult, 3)
		if err := broker.Subscribe("test", ch); err != nil {
			t.Fatalf("Failed to subscribe: %v", err)
		}

		r := newTestRollout(t, 3, broker)
		if err := r.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		// Counter pays 1 per agent per step for 5 steps with 2 agents.
		for ep := 0; ep < 3; ep++ {
			select {
			case res := <-ch:
				if res.Episode != ep {
					t.Errorf("Episode = %d, want %d", res.Episode, ep)
				}
				if res.Steps != 5 {
					t.Errorf("Steps = %d, want 5", res.Steps)
				}
				for id, ret := range res.Returns {
					if ret != 5 {
						t.Errorf("Return for %s = %v, want 5", id, ret)
					}
				}
			case <-time.After(time.Second):
				t.Fatal("Timeout waiting for episode result")
			}
		}

		mean, stddev := r.Summary()
		if mean != 10 {
			t.Errorf("Summary mean = %v, want 10", mean)
		}
		if stddev != 0 {
			t.Errorf("Summary stddev = %v, want 0", stddev)
		}
	})

	t.Run("test status lifecycle", func(t *testing.T) {
		r := newTestRollout(t, 1, nil)
		if r.Status().Running {
			t.Error("Rollout running before Run")
		}
		if err := r.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		st := r.Status()
		if st.Running {
			t.Error("Rollout still running after Run")
		}
		if st.EndTime.Before(st.StartTime) {
			t.Error("EndTime before StartTime")
		}
	})

	t.Run("test cancellation", func(t *testing.T) {
		r := newTestRollout(t, 100000, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := r.Run(ctx); err == nil {
			t.Error("Expected context error, got nil")
		}
	})

	t.Run("test missing policy", func(t *testing.T) {
		e := &env.Counter{}
		_, err := NewRollout(e, map[string]agent.Agent{}, 1, nil)
		if err == nil {
			t.Error("Expected error for missing policies, got nil")
		}
	})
}
