// Package config loads yaml experiment configuration and builds the
// configured environment and wrapper chain.
package config

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/emer/etable/etensor"
	"gopkg.in/yaml.v3"

	"github.com/dkkim93/multisuit/pkg/env"
	"github.com/dkkim93/multisuit/pkg/wrappers"
)

type ExperimentConfig struct {
	Name     string          `yaml:"name"`
	Episodes int             `yaml:"episodes"`
	Seed     int64           `yaml:"seed"`
	Env      EnvConfig       `yaml:"environment"`
	Wrappers []WrapperConfig `yaml:"wrappers"`
}

type EnvConfig struct {
	Type   string `yaml:"type"`   // "cartpole" or "counter"
	Agents int    `yaml:"agents"`
}

type WrapperConfig struct {
	Type      string `yaml:"type"` // frame_stack | delay | frame_skip | dtype
	NumFrames int    `yaml:"num_frames"`
	Delay     int    `yaml:"delay"`
	Dtype     string `yaml:"dtype"`
}

// Default is the configuration used when no file is given.
func Default() *ExperimentConfig {
	return &ExperimentConfig{
		Name:     "demo",
		Episodes: 5,
		Env:      EnvConfig{Type: "cartpole", Agents: 2},
		Wrappers: []WrapperConfig{{Type: "frame_stack", NumFrames: 4}},
	}
}

func LoadConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Episodes <= 0 {
		return nil, fmt.Errorf("config: episodes must be greater than zero, got %d", cfg.Episodes)
	}
	return cfg, nil
}

// BuildEnv constructs the configured base environment.
func (c *ExperimentConfig) BuildEnv(rng *rand.Rand) (env.ParallelEnv, error) {
	agents := c.Env.Agents
	if agents == 0 {
		agents = 2
	}
	switch c.Env.Type {
	case "", "cartpole":
		return env.NewMultiCartpole(agents, rng)
	case "counter":
		names := make([]string, agents)
		for i := range names {
			names[i] = fmt.Sprintf("agent_%d", i)
		}
		return &env.Counter{AgentNames: names}, nil
	default:
		return nil, fmt.Errorf("config: unknown environment type %q", c.Env.Type)
	}
}

// Apply wraps e with the configured wrapper chain, outermost last.
func Apply(e env.ParallelEnv, wcs []WrapperConfig) (env.ParallelEnv, error) {
	var err error
	for _, wc := range wcs {
		switch wc.Type {
		case "frame_stack":
			e, err = wrappers.NewFrameStack(e, wc.NumFrames)
		case "delay":
			e, err = wrappers.NewDelayObservations(e, wc.Delay)
		case "frame_skip":
			e, err = wrappers.NewFrameSkip(e, wc.NumFrames)
		case "dtype":
			var dt etensor.Type
			dt, err = dtypeFromString(wc.Dtype)
			if err == nil {
				e, err = wrappers.NewDtype(e, dt)
			}
		default:
			return nil, fmt.Errorf("config: unknown wrapper type %q", wc.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("config: wrapper %s: %w", wc.Type, err)
		}
	}
	return e, nil
}

func dtypeFromString(s string) (etensor.Type, error) {
	switch s {
	case "uint8":
		return etensor.UINT8, nil
	case "int32":
		return etensor.INT32, nil
	case "int64":
		return etensor.INT64, nil
	case "float32":
		return etensor.FLOAT32, nil
	case "float64":
		return etensor.FLOAT64, nil
	}
	return etensor.NULL, fmt.Errorf("unknown dtype %q", s)
}
