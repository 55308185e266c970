package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var repoDeleteYes bool

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage the hazard log repository",
	Long: `Commands for the GitHub repository that backs the hazard log.

Available commands:
  list    - List repositories in the organisation
  exists  - Report whether the configured repository exists
  create  - Create the configured repository
  delete  - Delete the configured repository`,
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories in the organisation",
	Args:  cobra.NoArgs,
	RunE:  runRepoList,
}

var repoExistsCmd = &cobra.Command{
	Use:   "exists",
	Short: "Report whether the configured repository exists",
	Args:  cobra.NoArgs,
	RunE:  runRepoExists,
}

var repoCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the configured repository",
	Long: `Create the configured repository under the organisation, or under the
authenticated user when the organisation is the user's own login. Creating a
repository that already exists succeeds without changes.`,
	Args: cobra.NoArgs,
	RunE: runRepoCreate,
}

var repoDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the configured repository",
	Long: `Delete the configured repository and every hazard in it. Deleting a
repository that does not exist succeeds without changes.

Unless --yes is given the repository name must be typed to confirm.`,
	Args: cobra.NoArgs,
	RunE: runRepoDelete,
}

func init() {
	repoDeleteCmd.Flags().BoolVarP(&repoDeleteYes, "yes", "y", false, "Delete without asking for confirmation")

	repoCmd.AddCommand(repoListCmd)
	repoCmd.AddCommand(repoExistsCmd)
	repoCmd.AddCommand(repoCreateCmd)
	repoCmd.AddCommand(repoDeleteCmd)
}

func runRepoList(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	repos, err := ctrl.ListRepositories(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(repos) == 0 {
		fmt.Fprintf(out, "📋 No repositories found in %s\n", ctrl.Identity().Organisation)
		return nil
	}

	fmt.Fprintf(out, "📋 Found %d repositories in %s:\n", len(repos), ctrl.Identity().Organisation)
	for _, repo := range repos {
		visibility := "public"
		if repo.Private {
			visibility = "private"
		}
		fmt.Fprintf(out, "  • %s (%s)\n", repo.Name, visibility)
	}
	return nil
}

func runRepoExists(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	exists, err := ctrl.RepositoryExists(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to look up repository: %w", err)
	}

	out := cmd.OutOrStdout()
	if exists {
		fmt.Fprintf(out, "✅ Repository %s exists\n", ctrl.Identity().FullName())
	} else {
		fmt.Fprintf(out, "❌ Repository %s not found\n", ctrl.Identity().FullName())
	}
	return nil
}

func runRepoCreate(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🔧 Creating repository %s...\n", ctrl.Identity().FullName())
	repo, err := ctrl.CreateRepository(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Repository ready: %s\n", repo.HTMLURL)
	return nil
}

func runRepoDelete(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	name := ctrl.Identity().FullName()
	if !repoDeleteYes {
		confirmed, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("⚠️  This deletes %s and all of its hazards. Type the repository name to confirm: ", name),
			ctrl.Identity().Repo)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	if err := ctrl.DeleteRepository(cmd.Context()); err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Repository %s deleted\n", name)
	return nil
}

// confirm prints prompt and reports whether the answer equals expected
func confirm(in io.Reader, out io.Writer, prompt, expected string) (bool, error) {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.TrimSpace(answer) == expected, nil
}
