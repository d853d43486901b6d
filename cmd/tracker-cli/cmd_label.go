package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage labels",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List labels",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			labels, err := apiClient.Labels.List(context.Background())
			if err != nil {
				fatal("list labels", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(labels))
				for _, l := range labels {
					rows = append(rows, []string{formatID(l.ID), l.Name})
				}
				formatTable([]string{"ID", "NAME"}, rows)
				return
			}
			output(labels, "")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a label",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			label, err := apiClient.Labels.Create(context.Background(), args[0])
			if err != nil {
				fatal("create label", err)
			}
			output(label, formatID(label.ID))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a label",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return err
			}
			_, err := parseID(args[0])
			return err
		},
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := parseID(args[0])
			label, err := apiClient.Labels.Rename(context.Background(), id, args[1])
			if err != nil {
				fatal("rename label", err)
			}
			output(label, formatID(label.ID))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a label and remove it from all issues",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := parseID(args[0])
			if err := apiClient.Labels.Delete(context.Background(), id); err != nil {
				fatal("delete label", err)
			}
			fmt.Println("deleted")
		},
	})
	return cmd
}
