package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the users, links and visits tables if they are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Database schema is up to date.")
		return nil
	},
}
