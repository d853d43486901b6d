package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate reports",
	}

	var limit int
	topCmd := &cobra.Command{
		Use:   "top-assignees",
		Short: "Rank assignees by issue count",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			rows, err := apiClient.Reports.TopAssignees(context.Background(), limit)
			if err != nil {
				fatal("top assignees", err)
			}
			if flagFmt == "table" {
				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					table = append(table, []string{formatID(r.AssigneeID), r.Username, fmt.Sprint(r.IssueCount)})
				}
				formatTable([]string{"ID", "USERNAME", "ISSUES"}, table)
				return
			}
			output(rows, "")
		},
	}
	topCmd.Flags().IntVar(&limit, "limit", 0, "Number of assignees (server default 10, max 100)")
	cmd.AddCommand(topCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "latency",
		Short: "Average hours to resolution or age, per status",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			rows, err := apiClient.Reports.Latency(context.Background())
			if err != nil {
				fatal("latency", err)
			}
			if flagFmt == "table" {
				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					table = append(table, []string{r.Status, fmt.Sprintf("%.1f", r.AvgResolutionHours), fmt.Sprint(r.IssueCount)})
				}
				formatTable([]string{"STATUS", "AVG HOURS", "ISSUES"}, table)
				return
			}
			output(rows, "")
		},
	})

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show issue counts and database pool usage",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := apiClient.Stats(context.Background())
			if err != nil {
				fatal("stats", err)
			}
			output(stats, fmt.Sprint(stats.Issues))
		},
	}
}
