package main

import (
	"fmt"

	"github.com/klokku/worktime/pkg/attendance"
	"github.com/spf13/cobra"
)

func newClockCmd(s *session) *cobra.Command {
	clockCmd := &cobra.Command{
		Use:   "clock",
		Short: "Clock in and out",
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Clock in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := attendance.NewMachine(s.client, s.clock)
			if _, err := m.Load(cmd.Context()); err != nil {
				return err
			}
			if err := m.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clocked in at %s\n", m.LoginTime().Local().Format("15:04"))
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Clock out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := attendance.NewMachine(s.client, s.clock)
			if _, err := m.Load(cmd.Context()); err != nil {
				return err
			}
			elapsed := m.Elapsed()
			if err := m.Stop(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clocked out after %s\n", formatElapsed(int64(elapsed.Seconds())))
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether you are clocked in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := attendance.NewMachine(s.client, s.clock)
			state, err := m.Load(cmd.Context())
			if err != nil {
				return err
			}
			if state == attendance.StateIdle {
				fmt.Fprintln(cmd.OutOrStdout(), "Clocked out")
				return nil
			}
			if m.LoginTime().IsZero() {
				fmt.Fprintln(cmd.OutOrStdout(), "Clocked in, start time unknown")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clocked in since %s (%s)\n",
				m.LoginTime().Local().Format("15:04"), formatElapsed(int64(m.Elapsed().Seconds())))
			return nil
		},
	}

	clockCmd.AddCommand(startCmd, stopCmd, statusCmd)
	return clockCmd
}

// formatElapsed formats a duration in seconds as "1h 2m 3s", omitting
// leading zero units.
func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	sec := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, sec)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
