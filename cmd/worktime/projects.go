package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProjectsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects hours can be logged against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := s.client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tNAME\tBILLABLE")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", p.Id, p.Code, p.Name, p.Billable)
			}
			return w.Flush()
		},
	}
}
