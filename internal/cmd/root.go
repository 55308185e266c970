package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"hazardlog/internal/browser"
	"hazardlog/pkg/controller"
	"hazardlog/pkg/fuzzy"
)

// Settings keys shared by flags and HAZARDLOG_* environment variables
const (
	settingEnv     = "env"
	settingLabels  = "labels"
	settingRepo    = "repo_path"
	settingAPIURL  = "api_url"
	settingTimeout = "timeout"
	settingVerbose = "verbose"
)

const envPrefix = "HAZARDLOG"

// Replaced in tests
var (
	newPicker   = func(prompt string) fuzzy.Picker { return fuzzy.NewFzf(prompt) }
	newOpener   = func() browser.Opener { return browser.NewOpener() }
	interactive = fuzzy.IsInteractive
)

var rootCmd = &cobra.Command{
	Use:   "hazardlog",
	Short: "Track hazards for a project in a GitHub repository",
	Long: `Hazardlog keeps a project's hazard log in a GitHub repository.

Each hazard is an issue labelled from a controlled vocabulary. The CLI checks
credentials, manages the backing repository, records and comments on hazards,
and pushes the local working tree.

Settings come from flags or HAZARDLOG_* environment variables. The GitHub
identity is read from the env file (--env).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func init() {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.String("env", ".env", "Path to the env file holding the GitHub identity")
	flags.String("labels", "", "Path to the label policy (default: "+controller.DefaultLabelsFile+" next to the env file)")
	flags.String("repo-path", "", "Local working tree (default: directory of the env file)")
	flags.String("api-url", "", "GitHub API base URL")
	flags.Duration("timeout", 30*time.Second, "Timeout for each GitHub API call")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	_ = viper.BindPFlag(settingEnv, flags.Lookup("env"))
	_ = viper.BindPFlag(settingLabels, flags.Lookup("labels"))
	_ = viper.BindPFlag(settingRepo, flags.Lookup("repo-path"))
	_ = viper.BindPFlag(settingAPIURL, flags.Lookup("api-url"))
	_ = viper.BindPFlag(settingTimeout, flags.Lookup("timeout"))
	_ = viper.BindPFlag(settingVerbose, flags.Lookup("verbose"))

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(orgCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(hazardCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(setupCmd)
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level := pslog.InfoLevel
	if viper.GetBool(settingVerbose) {
		level = pslog.DebugLevel
	}
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(cmd.ErrOrStderr()),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole, MinLevel: level}),
	)
	cmd.SetContext(pslog.ContextWithLogger(cmd.Context(), logger))
	return nil
}

// newController builds a Controller from the current settings followed by
// any command specific options.
func newController(extra ...controller.Option) (*controller.Controller, error) {
	var opts []controller.Option
	if path := viper.GetString(settingLabels); path != "" {
		opts = append(opts, controller.WithLabelsPath(path))
	}
	if path := viper.GetString(settingRepo); path != "" {
		opts = append(opts, controller.WithRepoPath(path))
	}
	if url := viper.GetString(settingAPIURL); url != "" {
		opts = append(opts, controller.WithAPIBaseURL(url))
	}
	if timeout := viper.GetDuration(settingTimeout); timeout > 0 {
		opts = append(opts, controller.WithTimeout(timeout))
	}

	opts = append(opts, extra...)

	ctrl, err := controller.New(viper.GetString(settingEnv), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return ctrl, nil
}
