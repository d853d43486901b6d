package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			users, _, err := apiClient.Users.List(context.Background(), limit, offset)
			if err != nil {
				fatal("list users", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{formatID(u.ID), u.Username, u.Email})
				}
				formatTable([]string{"ID", "USERNAME", "EMAIL"}, rows)
				return
			}
			output(users, "")
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get a user by id",
		Args:  idArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := parseID(args[0])
			user, err := apiClient.Users.Get(context.Background(), id)
			if err != nil {
				fatal("get user", err)
			}
			output(user, formatID(user.ID))
		},
	})

	var email string
	createCmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			user, err := apiClient.Users.Create(context.Background(), args[0], email)
			if err != nil {
				fatal("create user", err)
			}
			output(user, formatID(user.ID))
		},
	}
	createCmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.AddCommand(createCmd)

	return cmd
}
