package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hazardlog/pkg/config"
)

var setupResetYes bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Inspect or reset the stored setup state",
}

var setupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the setup step and which identity keys are set",
	Args:  cobra.NoArgs,
	RunE:  runSetupStatus,
}

var setupResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every stored setting and start afresh",
	Long: `Remove every key from the env file, including the GitHub identity and the
recorded setup step. Unless --yes is given, "reset" must be typed to confirm.`,
	Args: cobra.NoArgs,
	RunE: runSetupReset,
}

func init() {
	setupResetCmd.Flags().BoolVarP(&setupResetYes, "yes", "y", false, "Reset without asking for confirmation")

	setupCmd.AddCommand(setupStatusCmd)
	setupCmd.AddCommand(setupResetCmd)
}

func runSetupStatus(cmd *cobra.Command, _ []string) error {
	store, err := config.Load(viper.GetString(settingEnv))
	if err != nil {
		return err
	}

	step, err := store.SetupStep()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📄 Config: %s\n", store.Path())
	fmt.Fprintf(out, "🔧 Setup step: %s\n", step)
	fmt.Fprintf(out, "📚 Docs available: %t\n", step.DocsAvailable())
	for _, key := range config.IdentityKeys {
		value, ok := store.Get(key)
		mark := "✅"
		if !ok || value == "" {
			mark = "❌"
		}
		fmt.Fprintf(out, "  %s %s\n", mark, key)
	}
	return nil
}

func runSetupReset(cmd *cobra.Command, _ []string) error {
	store, err := config.Load(viper.GetString(settingEnv))
	if err != nil {
		return err
	}

	if !setupResetYes {
		confirmed, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("⚠️  This clears every setting in %s. Type reset to confirm: ", store.Path()), "reset")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	store.DeleteAll()
	if err := store.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Cleared %s\n", store.Path())
	return nil
}
