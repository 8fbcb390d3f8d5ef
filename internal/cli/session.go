package cli

import (
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current auth state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result State

			if err := client.Get("/api/v1/session", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	var email, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"email":    email,
				"password": pass,
			}
			var result State

			if err := client.Post("/api/v1/session/login", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var email, pass, first, last string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"email":      email,
				"password":   pass,
				"first_name": first,
				"last_name":  last,
			}
			var result State

			if err := client.Post("/api/v1/session/register", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&first, "first-name", "", "First name")
	cmd.Flags().StringVar(&last, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result State

			if err := client.Post("/api/v1/session/logout", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the current session out-of-band",
		Long: `Revoke invalidates the current session on the identity provider without
going through logout, the way a remote token revocation would. Useful for
exercising how the state and the navigation stream react.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result State

			if err := client.Post("/api/v1/session/revoke", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
