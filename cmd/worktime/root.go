package main

import (
	"os"

	"github.com/klokku/worktime/internal/config"
	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/remote"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// session carries what every command needs once the config is loaded.
type session struct {
	cfg    config.Application
	client *remote.Client
	clock  utils.Clock
}

func newRootCmd() *cobra.Command {
	var configPath string
	s := &session{clock: utils.SystemClock{}}

	rootCmd := &cobra.Command{
		Use:   "worktime",
		Short: "Weekly timesheets and attendance from the command line",
		Long: `worktime edits the weekly timesheet grid, submits it for approval
and clocks you in and out. Edits are cached locally until the record store
accepts them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setLogLevel(); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			s.cfg = cfg
			s.client = remote.NewClient(cfg.Client)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config/application.yaml", "Path to the configuration file")

	rootCmd.AddCommand(newWeekCmd(s))
	rootCmd.AddCommand(newClockCmd(s))
	rootCmd.AddCommand(newProjectsCmd(s))
	return rootCmd
}

func setLogLevel() error {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		log.SetLevel(log.WarnLevel)
		return nil
	}
	logrusLevel, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(logrusLevel)
	return nil
}
