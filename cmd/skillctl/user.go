package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var bootstrapUsername string

var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create the first ADMIN account (password read from SKILLCTL_ADMIN_PASSWORD)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		password := os.Getenv("SKILLCTL_ADMIN_PASSWORD")
		if password == "" {
			return fmt.Errorf("SKILLCTL_ADMIN_PASSWORD is not set")
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.userSvc.Bootstrap(cmd.Context(), bootstrapUsername, password)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (%s)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	bootstrapAdminCmd.Flags().StringVar(&bootstrapUsername, "username", "admin", "Administrator username")
	rootCmd.AddCommand(bootstrapAdminCmd)
}
