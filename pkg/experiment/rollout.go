// Package experiment drives full episodes of a wrapped environment with one
// policy per agent and reports per-episode results.
package experiment

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/emer/etable/etensor"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/dkkim93/multisuit/pkg/agent"
	"github.com/dkkim93/multisuit/pkg/env"
	"github.com/dkkim93/multisuit/pkg/messaging"
)

// stepCap bounds a single episode so a non-terminating environment cannot
// hang the run loop.
const stepCap = 10000

type Status struct {
	Running   bool
	StartTime time.Time
	EndTime   time.Time
	Errors    []error
}

// Rollout runs a fixed number of episodes, collecting one action per active
// agent each step and publishing an EpisodeResult per episode.
type Rollout struct {
	runID    string
	env      env.ParallelEnv
	policies map[string]agent.Agent
	episodes int
	broker   messaging.Broker

	mu      sync.RWMutex
	status  Status
	returns []float64 // total return per episode, all agents summed
}

func NewRollout(e env.ParallelEnv, policies map[string]agent.Agent, episodes int,
	broker messaging.Broker) (*Rollout, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("rollout: episodes must be greater than zero, got %d", episodes)
	}
	for _, id := range e.PossibleAgents() {
		if _, ok := policies[id]; !ok {
			return nil, fmt.Errorf("rollout: no policy for agent %q", id)
		}
	}
	return &Rollout{
		runID:    uuid.NewString(),
		env:      e,
		policies: policies,
		episodes: episodes,
		broker:   broker,
	}, nil
}

func (r *Rollout) RunID() string { return r.runID }

func (r *Rollout) Run(ctx context.Context) error {
	r.mu.Lock()
	r.status.Running = true
	r.status.StartTime = time.Now()
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.status.Running = false
		r.status.EndTime = time.Now()
		r.mu.Unlock()
	}()

	for ep := 0; ep < r.episodes; ep++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.episode(ctx, ep); err != nil {
			r.mu.Lock()
			r.status.Errors = append(r.status.Errors, err)
			r.mu.Unlock()
			return err
		}
	}
	return nil
}

func (r *Rollout) episode(ctx context.Context, ep int) error {
	res, err := r.env.Reset()
	if err != nil {
		return fmt.Errorf("episode %d: reset: %w", ep, err)
	}
	active := slices.Clone(res.Agents)
	obs := res.Observations
	returns := make(map[string]float64, len(active))
	steps := 0

	for len(active) > 0 && steps < stepCap {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		actions := make(map[string]any, len(active))
		for _, id := range active {
			var o etensor.Tensor
			if obs != nil {
				o = obs[id]
			}
			act, err := r.policies[id].Act(o, r.env.ActionSpaces()[id])
			if err != nil {
				return fmt.Errorf("episode %d: agent %s: %w", ep, id, err)
			}
			actions[id] = act
		}

		step, err := r.env.Step(actions)
		if err != nil {
			return fmt.Errorf("episode %d: step %d: %w", ep, steps, err)
		}
		for id, rew := range step.Rewards {
			returns[id] += rew
		}
		steps++
		active = slices.Clone(step.Agents)
		obs = step.Observations
	}

	var total float64
	for _, v := range returns {
		total += v
	}
	r.mu.Lock()
	r.returns = append(r.returns, total)
	r.mu.Unlock()

	if r.broker != nil {
		err := r.broker.Publish(messaging.EpisodeResult{
			RunID:     r.runID,
			Episode:   ep,
			Steps:     steps,
			Returns:   returns,
			Timestamp: time.Now(),
		})
		if err != nil {
			log.Printf("episode %d: result dropped: %v", ep, err)
		}
	}
	return nil
}

// Summary returns the mean and sample standard deviation of total episode
// returns seen so far.
func (r *Rollout) Summary() (mean, stddev float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.returns) == 0 {
		return 0, 0
	}
	return stat.Mean(r.returns, nil), stat.StdDev(r.returns, nil)
}

func (r *Rollout) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}
