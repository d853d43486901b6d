package main

import (
	"context"
	"fmt"
	"os"

	"github.com/persistorai/tracker/client"
	"github.com/spf13/cobra"
)

func newBulkStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-status <status> <id>[,<id>...] [id...]",
		Short: "Move several issues to one status atomically",
		Long: "Set the status of every listed issue in a single transaction.\n" +
			"If any id does not exist nothing is changed.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(2)(cmd, args); err != nil {
				return err
			}
			if !validStatus(args[0]) {
				return fmt.Errorf("invalid status %q", args[0])
			}
			_, err := parseIDs(args[1:])
			return err
		},
		Run: func(cmd *cobra.Command, args []string) {
			ids, _ := parseIDs(args[1:])
			result, err := apiClient.Issues.BulkUpdateStatus(context.Background(), ids, args[0])
			if err != nil {
				if apiErr, ok := client.AsAPIError(err); ok && len(apiErr.MissingIDs) > 0 {
					fmt.Fprintf(os.Stderr, "Error: issues not found: %v (no issues were changed)\n", apiErr.MissingIDs)
					os.Exit(1)
				}
				fatal("bulk status", err)
			}
			switch flagFmt {
			case "table":
				printIssueTable(result.Issues)
			case "quiet":
				formatQuiet(formatID(int64(result.UpdatedCount)))
			default:
				formatJSON(result)
			}
		},
	}
}
