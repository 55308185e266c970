package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "GitHub organisation commands",
}

var orgExistsCmd = &cobra.Command{
	Use:   "exists",
	Short: "Report whether the configured organisation exists",
	Long: `Report whether the configured organisation resolves on GitHub. The
authenticated user's own login counts as an organisation.`,
	Args: cobra.NoArgs,
	RunE: runOrgExists,
}

func init() {
	orgCmd.AddCommand(orgExistsCmd)
}

func runOrgExists(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	exists, err := ctrl.OrganisationExists(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to look up organisation: %w", err)
	}

	out := cmd.OutOrStdout()
	if exists {
		fmt.Fprintf(out, "✅ Organisation %s exists\n", ctrl.Identity().Organisation)
	} else {
		fmt.Fprintf(out, "❌ Organisation %s not found\n", ctrl.Identity().Organisation)
	}
	return nil
}
