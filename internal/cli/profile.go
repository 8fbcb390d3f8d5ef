package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile management commands",
	}

	cmd.AddCommand(newProfileShowCmd())
	cmd.AddCommand(newProfileUpdateCmd())
	cmd.AddCommand(newProfileReloadCmd())

	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Get("/api/v1/profile", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newProfileUpdateCmd() *cobra.Command {
	var email, first, last string
	var attrs []string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Long: `Update applies a partial change to the profile. Only the fields given
via flags are touched; everything else keeps its current value.

Attributes are free-form key=value pairs, e.g. --attr theme=dark.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if cmd.Flags().Changed("email") {
				req["email"] = email
			}
			if cmd.Flags().Changed("first-name") {
				req["first_name"] = first
			}
			if cmd.Flags().Changed("last-name") {
				req["last_name"] = last
			}
			if len(attrs) > 0 {
				parsed := map[string]any{}
				for _, attr := range attrs {
					key, value, ok := strings.Cut(attr, "=")
					if !ok {
						return fmt.Errorf("invalid --attr %q: expected key=value", attr)
					}
					parsed[key] = value
				}
				req["attrs"] = parsed
			}

			if len(req) == 0 {
				return fmt.Errorf("nothing to update: pass at least one of --email, --first-name, --last-name, --attr")
			}

			var result Profile
			if err := client.Patch("/api/v1/profile", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&first, "first-name", "", "New first name")
	cmd.Flags().StringVar(&last, "last-name", "", "New last name")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "Attribute to set, key=value (repeatable)")

	return cmd
}

func newProfileReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-fetch the profile from the backing store",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Post("/api/v1/profile/reload", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
