package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv|->",
		Short: "Import issues from a CSV file",
		Long: "Import issues from CSV. The header must contain title, description,\n" +
			"status and reporter_username; assignee_username is optional.\n" +
			"Valid rows are created even when other rows fail.",
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var r io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					fatal("open file", err)
				}
				defer f.Close()
				r = f
			}

			report, err := apiClient.Issues.Import(context.Background(), r)
			if err != nil {
				fatal("import", err)
			}

			switch flagFmt {
			case "table":
				fmt.Printf("rows: %d  created: %d  failed: %d\n", report.TotalRows, report.Successful, report.Failed)
				if len(report.Errors) > 0 {
					fmt.Println()
					rows := make([][]string, 0, len(report.Errors))
					for _, e := range report.Errors {
						rows = append(rows, []string{fmt.Sprint(e.Row), e.Message})
					}
					formatTable([]string{"ROW", "ERROR"}, rows)
				}
			case "quiet":
				for _, id := range report.IssueIDs {
					fmt.Println(id)
				}
			default:
				formatJSON(report)
			}

			if report.Failed > 0 {
				os.Exit(2)
			}
		},
	}
}
