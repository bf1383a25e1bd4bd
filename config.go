package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/jobqueue/internal/logging"
	"github.com/viant/jobqueue/model"
	arenahttp "github.com/viant/jobqueue/service/arena/http"
	arenamem "github.com/viant/jobqueue/service/arena/memory"
	"github.com/viant/jobqueue/service/meta"
	"github.com/viant/jobqueue/service/orchestrator"
)

// Config is a serialisable representation of the scheduler configuration. It
// can be loaded from YAML or JSON; fields left out keep their defaults.
type Config struct {
	Arena        ArenaConfig        `json:"arena" yaml:"arena"`
	Simulation   *arenamem.Config   `json:"simulation,omitempty" yaml:"simulation,omitempty"`
	Placement    PlacementConfig    `json:"placement" yaml:"placement"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	Report       ReportConfig       `json:"report" yaml:"report"`
	Metrics      MetricsConfig      `json:"metrics" yaml:"metrics"`
	Events       EventsConfig       `json:"events" yaml:"events"`
	Log          LogConfig          `json:"log" yaml:"log"`
	Tracing      TracingConfig      `json:"tracing" yaml:"tracing"`
}

type ArenaConfig struct {
	BaseURL string        `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Long    bool          `json:"long,omitempty" yaml:"long,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type PlacementConfig struct {
	Mode            model.PlacementMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	MachineCapacity int                 `json:"machineCapacity,omitempty" yaml:"machineCapacity,omitempty"`
}

type OrchestratorConfig struct {
	PollingInterval time.Duration `json:"pollingInterval,omitempty" yaml:"pollingInterval,omitempty"`
	MaxDrainTurns   int           `json:"maxDrainTurns,omitempty" yaml:"maxDrainTurns,omitempty"`
}

// ReportConfig sets where run summaries are stored; empty URL disables it.
type ReportConfig struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// MetricsConfig sets the prometheus listen address; empty disables serving.
type MetricsConfig struct {
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// EventsConfig sets where lifecycle events are journaled; empty keeps them
// in memory.
type EventsConfig struct {
	JournalURL string `json:"journalURL,omitempty" yaml:"journalURL,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns a Config populated with package defaults.
func DefaultConfig() *Config {
	orchestratorConfig := orchestrator.DefaultConfig()
	return &Config{
		Arena: ArenaConfig{
			BaseURL: arenahttp.DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Placement: PlacementConfig{
			Mode:            model.ModeStrict,
			MachineCapacity: model.DefaultMachineCapacity,
		},
		Orchestrator: OrchestratorConfig{
			PollingInterval: orchestratorConfig.PollingInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// Validate returns an error describing the first invalid setting, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if _, err := model.ParsePlacementMode(string(c.Placement.Mode)); err != nil {
		return fmt.Errorf("placement.mode: %w", err)
	}
	if c.Placement.MachineCapacity <= 0 {
		return fmt.Errorf("placement.machineCapacity must be > 0")
	}
	if c.Orchestrator.PollingInterval < 0 {
		return fmt.Errorf("orchestrator.pollingInterval must be >= 0")
	}
	if c.Orchestrator.MaxDrainTurns < 0 {
		return fmt.Errorf("orchestrator.maxDrainTurns must be >= 0")
	}
	if c.Arena.Timeout < 0 {
		return fmt.Errorf("arena.timeout must be >= 0")
	}
	if sim := c.Simulation; sim != nil {
		if sim.ArrivalRate < 0 {
			return fmt.Errorf("simulation.arrivalRate must be >= 0")
		}
		if sim.Script == nil && (sim.MinCapacity <= 0 || sim.MaxCapacity < sim.MinCapacity) {
			return fmt.Errorf("simulation capacity range is invalid: [%d, %d]", sim.MinCapacity, sim.MaxCapacity)
		}
	}
	return nil
}

// orchestratorConfig maps the file configuration onto the orchestrator.
func (c *Config) orchestratorConfig() orchestrator.Config {
	mode, _ := model.ParsePlacementMode(string(c.Placement.Mode))
	return orchestrator.Config{
		Mode:            mode,
		MachineCapacity: c.Placement.MachineCapacity,
		PollingInterval: c.Orchestrator.PollingInterval,
		MaxDrainTurns:   c.Orchestrator.MaxDrainTurns,
	}
}

// LoadConfig loads the configuration at URL on top of DefaultConfig.
// ${env.KEY} expressions are expanded before decoding.
func LoadConfig(ctx context.Context, URL string, metaService ...*meta.Service) (*Config, error) {
	var service *meta.Service
	if len(metaService) > 0 && metaService[0] != nil {
		service = metaService[0]
	} else {
		service = meta.New(afs.New(), "")
	}
	ret := DefaultConfig()
	if err := service.Load(ctx, URL, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return ret, nil
}
