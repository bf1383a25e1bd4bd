package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/jobqueue"
	"github.com/viant/jobqueue/internal/logging"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/service/arena"
	"github.com/viant/jobqueue/service/event"
	"github.com/viant/jobqueue/service/metrics"
	"github.com/viant/jobqueue/service/report"
)

const (
	cliName        = "jobqueue"
	cliDescription = "jobqueue places arriving jobs onto ephemeral machines, turn by turn."
	serviceVersion = "0.1.0"
)

// flags shared by run and simulate
var globalFlags = struct {
	ConfigURL   string
	Long        bool
	Mode        model.PlacementMode
	ReportURL   string
	MetricsAddr string
	EventLog    string
	LogLevel    string
	LogFormat   string
	Trace       string
}{}

var cmdJobQueue = &cobra.Command{
	Use:           cliName,
	Short:         cliDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := cmdJobQueue.PersistentFlags()
	flags.StringVar(&globalFlags.ConfigURL, "config", "", "Configuration file URL (YAML or JSON, any afs supported scheme).")
	flags.BoolVar(&globalFlags.Long, "long", false, "Play a long game (500 turns) instead of a short one (50 turns).")
	flags.Var(&globalFlags.Mode, "mode", "Placement mode: strict or delay.")
	flags.StringVar(&globalFlags.ReportURL, "report", "", "Location where run summaries are stored.")
	flags.StringVar(&globalFlags.MetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address, e.g. :2112.")
	flags.StringVar(&globalFlags.EventLog, "event-log", "", "Journal lifecycle events as JSON files under this URL.")
	flags.StringVar(&globalFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error).")
	flags.StringVar(&globalFlags.LogFormat, "log-format", "", "Log format (text or json).")
	flags.StringVar(&globalFlags.Trace, "trace", "", "Write OpenTelemetry spans to this file.")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := cmdJobQueue.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cliName, err)
		os.Exit(1)
	}
}

// loadConfig reads --config and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*jobqueue.Config, error) {
	config := jobqueue.DefaultConfig()
	if globalFlags.ConfigURL != "" {
		var err error
		if config, err = jobqueue.LoadConfig(cmd.Context(), globalFlags.ConfigURL); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("long") {
		config.Arena.Long = globalFlags.Long
	}
	if flags.Changed("mode") {
		config.Placement.Mode = globalFlags.Mode
	}
	if flags.Changed("report") {
		config.Report.URL = globalFlags.ReportURL
	}
	if flags.Changed("metrics-addr") {
		config.Metrics.Address = globalFlags.MetricsAddr
	}
	if flags.Changed("event-log") {
		config.Events.JournalURL = globalFlags.EventLog
	}
	if flags.Changed("log-level") {
		config.Log.Level = globalFlags.LogLevel
	}
	if flags.Changed("log-format") {
		config.Log.Format = globalFlags.LogFormat
	}
	if flags.Changed("trace") {
		config.Tracing.Enabled = true
		config.Tracing.OutputFile = globalFlags.Trace
	}
	return config, config.Validate()
}

// play builds the service around arenaService and runs one session.
func play(cmd *cobra.Command, config *jobqueue.Config, arenaService arena.Arena) error {
	ctx := cmd.Context()
	logger, err := logging.New(config.Log.Level, config.Log.Format)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	if config.Metrics.Address != "" {
		go func() {
			if err := metrics.Serve(ctx, config.Metrics.Address, registry, logger); err != nil {
				logger.WithError(err).Error("metrics server failed")
			}
		}()
	}
	eventService, err := newEventService(config, logger)
	if err != nil {
		return err
	}
	defer eventService.Close()
	eventService.SetListener(func(e *event.Event[any]) {
		logger.WithFields(logrus.Fields{
			"event":   e.Context.EventType,
			"turn":    e.Context.Turn,
			"job":     e.Context.JobID,
			"machine": e.Context.MachineID,
		}).Debug("event")
	})

	options := []jobqueue.Option{
		jobqueue.WithConfig(config),
		jobqueue.WithLogger(logger),
		jobqueue.WithRegisterer(registry),
		jobqueue.WithEventService(eventService),
	}
	if arenaService != nil {
		options = append(options, jobqueue.WithArena(arenaService))
	}
	if config.Tracing.Enabled {
		options = append(options, jobqueue.WithTracing(cliName, serviceVersion, config.Tracing.OutputFile))
	}
	srv, err := jobqueue.New(ctx, options...)
	if err != nil {
		return err
	}
	summary, err := srv.Run(ctx)
	if summary != nil {
		printSummary(cmd, summary)
	}
	return err
}

func newEventService(config *jobqueue.Config, logger logrus.FieldLogger) (*event.Service, error) {
	if config.Events.JournalURL == "" {
		return event.New(event.VendorMemory, event.WithLogger(logger))
	}
	return event.New(event.VendorFS, event.WithLogger(logger), event.WithJournal(afs.New(), config.Events.JournalURL))
}

func printSummary(cmd *cobra.Command, summary *report.Summary) {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(summary)
}
