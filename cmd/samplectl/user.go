package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sampleapps/internal/repository"
	"sampleapps/pkg/rbac"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	setRole := &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change a user's role (user or admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, role := strings.ToLower(strings.TrimSpace(args[0])), args[1]
			if !rbac.ValidRole(role) {
				return fmt.Errorf("unknown role %q", role)
			}

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := repository.NewUserRepository(s.pool, s.log).SetRole(cmd.Context(), email, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, role)
			return nil
		},
	}

	cmd.AddCommand(setRole)
	return cmd
}
