package main

import (
	"github.com/spf13/cobra"
	arenamem "github.com/viant/jobqueue/service/arena/memory"
)

var simulateFlags = struct {
	Seed  uint64
	Turns int
	Rate  float64
}{}

var cmdSimulate = &cobra.Command{
	Use:   "simulate [--seed=N] [--turns=N]",
	Short: "Play a session against an in-process simulated arena",
	Long: `Play a session against an in-process simulated arena. Arrivals are
drawn from seeded distributions, so a given seed always yields the same run.

Compare placement modes on the same workload:
	jobqueue simulate --seed=7 --mode=strict
	jobqueue simulate --seed=7 --mode=delay`,
	RunE: runSimulate,
}

func init() {
	cmdJobQueue.AddCommand(cmdSimulate)
	cmdSimulate.Flags().Uint64Var(&simulateFlags.Seed, "seed", 1, "Random seed for arrivals.")
	cmdSimulate.Flags().IntVar(&simulateFlags.Turns, "turns", 0, "Override the session horizon.")
	cmdSimulate.Flags().Float64Var(&simulateFlags.Rate, "rate", 0, "Mean job arrivals per turn.")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	simulation := arenamem.DefaultConfig()
	if config.Simulation != nil {
		simulation = config.Simulation
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		simulation.Seed = simulateFlags.Seed
	}
	if flags.Changed("turns") {
		simulation.Turns = simulateFlags.Turns
	}
	if flags.Changed("rate") {
		simulation.ArrivalRate = simulateFlags.Rate
	}
	config.Simulation = simulation
	if err = config.Validate(); err != nil {
		return err
	}
	config.Orchestrator.PollingInterval = 0
	return play(cmd, config, arenamem.New(arenamem.WithConfig(simulation)))
}
