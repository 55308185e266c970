package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hazardlog/pkg/controller"
)

var (
	pushMessage string
	pushRemote  string
	pushBranch  string
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Commit the working tree and push it to GitHub",
	Long: `Stage every change in the local working tree, commit it as the configured
user and push it to the remote. A push the remote rejects is reported as an
error and never forced.`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVarP(&pushMessage, "message", "m", "", "Commit message (required)")
	pushCmd.Flags().StringVar(&pushRemote, "remote", "", "Remote to push to (default: origin)")
	pushCmd.Flags().StringVar(&pushBranch, "branch", "", "Remote branch (default: current branch)")
	_ = pushCmd.MarkFlagRequired("message")
}

func runPush(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController(pushOptions()...)
	if err != nil {
		return err
	}

	result, err := ctrl.CommitAndPush(cmd.Context(), pushMessage)
	if err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}

	out := cmd.OutOrStdout()
	if result.Committed {
		fmt.Fprintf(out, "📝 Committed %s\n", shortCommit(result.Commit))
	} else {
		fmt.Fprintln(out, "📝 Nothing to commit")
	}
	if result.UpToDate {
		fmt.Fprintf(out, "✅ Remote branch %s is already up to date\n", result.Branch)
	} else {
		fmt.Fprintf(out, "🚀 Pushed %s to %s\n", shortCommit(result.Commit), result.Branch)
	}
	return nil
}

func pushOptions() []controller.Option {
	var opts []controller.Option
	if pushRemote != "" {
		opts = append(opts, controller.WithRemote(pushRemote))
	}
	if pushBranch != "" {
		opts = append(opts, controller.WithBranch(pushBranch))
	}
	return opts
}

func shortCommit(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
