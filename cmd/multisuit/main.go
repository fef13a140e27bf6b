package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dkkim93/multisuit/pkg/agent"
	"github.com/dkkim93/multisuit/pkg/config"
	"github.com/dkkim93/multisuit/pkg/experiment"
	"github.com/dkkim93/multisuit/pkg/messaging"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "multisuit",
		Short: "Multisuit wraps parallel multi-agent RL environments with observation transforms: frame stacking, observation delay, frame skipping and dtype casting.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run random-policy episodes through a configured wrapper chain",
		RunE:  runRollout,
	}
	runCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to a yaml experiment config")

	rootCmd.AddCommand(runCmd)
	rootCmd.Execute()
}

func runRollout(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cancel()
	}()

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	base, err := cfg.BuildEnv(rng)
	if err != nil {
		return err
	}
	wrapped, err := config.Apply(base, cfg.Wrappers)
	if err != nil {
		return err
	}
	defer wrapped.Close()

	policies := make(map[string]agent.Agent)
	for _, id := range wrapped.PossibleAgents() {
		policies[id] = agent.NewRandomAgent(
			agent.WithID(id),
			agent.WithRand(rand.New(rand.NewSource(rng.Int63()))),
		)
	}

	broker := messaging.NewBroker()
	defer broker.Reset()
	results := make(chan messaging.EpisodeResult, cfg.Episodes)
	if err := broker.Subscribe("cli", results); err != nil {
		return err
	}

	roll, err := experiment.NewRollout(wrapped, policies, cfg.Episodes, broker)
	if err != nil {
		return err
	}
	log.Printf("run %s: %s, %d episodes, seed %d", roll.RunID(), cfg.Name, cfg.Episodes, seed)
	if err := roll.Run(ctx); err != nil {
		return fmt.Errorf("rollout failed: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Episode", "Steps", "Total Return"})
	for len(results) > 0 {
		res := <-results
		var total float64
		for _, v := range res.Returns {
			total += v
		}
		table.Append([]string{
			fmt.Sprintf("%d", res.Episode),
			fmt.Sprintf("%d", res.Steps),
			fmt.Sprintf("%.1f", total),
		})
	}
	table.Render()

	mean, stddev := roll.Summary()
	log.Printf("mean return %.2f, stddev %.2f", mean, stddev)
	return nil
}
