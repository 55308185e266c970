package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the GitHub credentials in the env file",
	Long: `Probe GitHub with the configured identity and print one of:

  REPO_EXISTS          organisation, username and repository all resolve
  REPO_DOES_NOT_EXIST  the account is usable but the repository is missing
  USERNAME_BAD         the username does not resolve to an account
  ORGANISATION_BAD     the organisation does not resolve

Authentication and transport failures are reported as errors. A warning is
printed when the token lacks the repo or delete_repo scope.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	outcome, err := ctrl.CheckCredentials(cmd.Context())
	if err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), outcome.String())

	missing, err := ctrl.MissingScopes(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read token scopes: %w", err)
	}
	if len(missing) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Token is missing scopes: %s\n", strings.Join(missing, ", "))
	}
	return nil
}
