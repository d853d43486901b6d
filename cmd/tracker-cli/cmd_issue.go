package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/persistorai/tracker/client"
	"github.com/spf13/cobra"
)

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Manage issues",
	}
	cmd.AddCommand(issueListCmd())
	cmd.AddCommand(issueGetCmd())
	cmd.AddCommand(issueCreateCmd())
	cmd.AddCommand(issueUpdateCmd())
	cmd.AddCommand(issueTimelineCmd())
	cmd.AddCommand(issueLabelsCmd())
	cmd.AddCommand(issueCommentCmd())
	return cmd
}

func issueListCmd() *cobra.Command {
	var opts client.IssueListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if opts.Limit < 0 || opts.Offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit and --offset must be non-negative\n")
				os.Exit(1)
			}
			if opts.Status != "" && !validStatus(opts.Status) {
				fmt.Fprintf(os.Stderr, "Error: invalid status %q\n", opts.Status)
				os.Exit(1)
			}
			issues, hasMore, err := apiClient.Issues.List(context.Background(), &opts)
			if err != nil {
				fatal("list issues", err)
			}
			switch flagFmt {
			case "table":
				printIssueTable(issues)
				if hasMore {
					fmt.Println("(more results available, use --offset)")
				}
			case "quiet":
				for _, i := range issues {
					fmt.Println(i.ID)
				}
			default:
				output(map[string]any{"issues": issues, "has_more": hasMore}, "")
			}
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status")
	cmd.Flags().Int64Var(&opts.AssigneeID, "assignee", 0, "Filter by assignee id")
	cmd.Flags().Int64Var(&opts.ReporterID, "reporter", 0, "Filter by reporter id")
	cmd.Flags().StringVarP(&opts.Search, "query", "q", "", "Search title and description")
	cmd.Flags().StringVar(&opts.Ordering, "ordering", "", "Sort key, prefix with - for descending")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Offset")
	return cmd
}

func printIssueTable(issues []client.Issue) {
	headers := []string{"ID", "STATUS", "VER", "ASSIGNEE", "TITLE"}
	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		rows = append(rows, []string{
			formatID(i.ID), i.Status, formatID(i.Version), formatOptionalID(i.AssigneeID), truncate(i.Title, 60),
		})
	}
	formatTable(headers, rows)
}

func issueGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get an issue with labels and comments",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := parseID(args[0])
			issue, err := apiClient.Issues.Get(context.Background(), id)
			if err != nil {
				fatal("get issue", err)
			}
			output(issue, formatID(issue.ID))
		},
	}
}

func issueCreateCmd() *cobra.Command {
	var (
		req      client.CreateIssueRequest
		assignee int64
		labels   []int64
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an issue",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if req.ReporterID <= 0 {
				return errors.New("--reporter is required")
			}
			if req.Status != "" && !validStatus(req.Status) {
				return fmt.Errorf("invalid status %q", req.Status)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			req.Title = args[0]
			if assignee > 0 {
				req.AssigneeID = &assignee
			}
			req.LabelIDs = labels
			issue, err := apiClient.Issues.Create(context.Background(), &req)
			if err != nil {
				fatal("create issue", err)
			}
			output(issue, formatID(issue.ID))
		},
	}
	cmd.Flags().StringVar(&req.Description, "description", "", "Issue description")
	cmd.Flags().StringVar(&req.Status, "status", "", "Initial status (default open)")
	cmd.Flags().Int64Var(&req.ReporterID, "reporter", 0, "Reporter user id")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "Assignee user id")
	cmd.Flags().Int64SliceVar(&labels, "label", nil, "Label id (repeatable)")
	return cmd
}

func issueUpdateCmd() *cobra.Command {
	var (
		version                    int64
		title, description, status string
		assignee                   int64
		unassign                   bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an issue guarded by its version",
		Long: "Apply a partial update. --version must match the stored version;\n" +
			"on a conflict the current issue is printed and the command fails.",
		Args: idArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if version <= 0 {
				return errors.New("--version is required")
			}
			if unassign && cmd.Flags().Changed("assignee") {
				return errors.New("--assignee and --unassign are mutually exclusive")
			}
			if status != "" && !validStatus(status) {
				return fmt.Errorf("invalid status %q", status)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := parseID(args[0])
			req := &client.UpdateIssueRequest{Version: version, ClearAssignee: unassign}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if status != "" {
				req.Status = &status
			}
			if cmd.Flags().Changed("assignee") {
				req.AssigneeID = &assignee
			}

			issue, err := apiClient.Issues.Update(context.Background(), id, req)
			if err != nil {
				if apiErr, ok := client.AsAPIError(err); ok && client.IsVersionConflict(err) && apiErr.Current != nil {
					fmt.Fprintf(os.Stderr, "Error: version %d is stale, issue is at version %d\n", version, apiErr.CurrentVersion)
					formatJSON(apiErr.Current)
					os.Exit(1)
				}
				fatal("update issue", err)
			}
			output(issue, formatID(issue.Version))
		},
	}
	cmd.Flags().Int64Var(&version, "version", 0, "Expected current version")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "New assignee user id")
	cmd.Flags().BoolVar(&unassign, "unassign", false, "Clear the assignee")
	return cmd
}

func issueTimelineCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "timeline <id>",
		Short: "Show an issue's change history, newest first",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := parseID(args[0])
			entries, _, err := apiClient.Issues.Timeline(context.Background(), id, limit, offset)
			if err != nil {
				fatal("get timeline", err)
			}
			if flagFmt == "table" {
				headers := []string{"TIME", "CHANGE", "BY", "OLD", "NEW"}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						formatTime(e.Timestamp), e.ChangeType, formatOptionalID(e.ChangedBy),
						truncate(deref(e.OldValue), 30), truncate(deref(e.NewValue), 30),
					})
				}
				formatTable(headers, rows)
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func issueLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels <id> [label-id...]",
		Short: "Replace an issue's labels (no label ids clears them)",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID(args[0])
			if err != nil {
				fatal("parse issue id", err)
			}
			labelIDs, err := parseIDs(args[1:])
			if err != nil {
				fatal("parse label ids", err)
			}
			labels, err := apiClient.Issues.SetLabels(context.Background(), id, labelIDs)
			if err != nil {
				fatal("set labels", err)
			}
			output(labels, "")
		},
	}
}

func issueCommentCmd() *cobra.Command {
	var author int64
	cmd := &cobra.Command{
		Use:   "comment <id> <body>",
		Short: "Add a comment to an issue",
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseID(args[0]); err != nil {
				return err
			}
			if author <= 0 {
				return errors.New("--author is required")
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := parseID(args[0])
			comment, err := apiClient.Comments.Create(context.Background(), id, author, args[1])
			if err != nil {
				fatal("add comment", err)
			}
			output(comment, formatID(comment.ID))
		},
	}
	cmd.Flags().Int64Var(&author, "author", 0, "Author user id")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
