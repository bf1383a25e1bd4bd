package main

import (
	"github.com/spf13/cobra"
)

var runFlags = struct {
	BaseURL string
}{}

var cmdRun = &cobra.Command{
	Use:   "run [--base-url=URL]",
	Short: "Play a session against the job queue game service",
	Long: `Play a session against the job queue game service and print the run
summary as JSON.

Play a long game in delay tolerant mode:
	jobqueue run --long --mode=delay`,
	RunE: runPlay,
}

func init() {
	cmdJobQueue.AddCommand(cmdRun)
	cmdRun.Flags().StringVar(&runFlags.BaseURL, "base-url", "", "Game service base URL.")
}

func runPlay(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("base-url") {
		config.Arena.BaseURL = runFlags.BaseURL
	}
	return play(cmd, config, nil)
}
