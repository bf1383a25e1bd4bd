package memory

import "github.com/viant/jobqueue/model"

// Config drives job arrivals of the simulated arena.
type Config struct {
	Seed uint64 `json:"seed" yaml:"seed"`
	// Turns overrides the session horizon when positive.
	Turns int `json:"turns,omitempty" yaml:"turns,omitempty"`
	// ArrivalRate is the mean number of jobs announced per turn (Poisson).
	ArrivalRate float64 `json:"arrivalRate" yaml:"arrivalRate"`
	// MinCapacity and MaxCapacity bound required capacity (uniform).
	MinCapacity int `json:"minCapacity" yaml:"minCapacity"`
	MaxCapacity int `json:"maxCapacity" yaml:"maxCapacity"`
	// MeanTurns is the mean run length; run lengths are 1 + Poisson(MeanTurns-1).
	MeanTurns float64 `json:"meanTurns" yaml:"meanTurns"`
	// Script replaces generated arrivals: turn number to announced jobs.
	Script map[int][]*model.JobSpec `json:"script,omitempty" yaml:"script,omitempty"`
}

// DefaultConfig returns arrival settings close to the public job queue game.
func DefaultConfig() *Config {
	return &Config{
		Seed:        1,
		ArrivalRate: 3,
		MinCapacity: 4,
		MaxCapacity: 40,
		MeanTurns:   6,
	}
}
