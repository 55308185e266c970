package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hazardlog/pkg/labels"
)

var labelsDetail string

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Inspect the hazard label policy",
}

var labelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the labels a hazard may carry",
	Args:  cobra.NoArgs,
	RunE:  runLabelsList,
}

var labelsCheckCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Report whether a label is in the policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runLabelsCheck,
}

func init() {
	labelsListCmd.Flags().StringVarP(&labelsDetail, "detail", "d", labels.DetailFull.String(), "Detail level: full or name_only")

	labelsCmd.AddCommand(labelsListCmd)
	labelsCmd.AddCommand(labelsCheckCmd)
}

func runLabelsList(cmd *cobra.Command, _ []string) error {
	detail, err := labels.ParseDetail(labelsDetail)
	if err != nil {
		return err
	}

	ctrl, err := newController()
	if err != nil {
		return err
	}

	listing, err := ctrl.AvailableLabels(detail)
	if err != nil {
		return fmt.Errorf("failed to load labels: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, name := range listing.Names {
		fmt.Fprintln(out, name)
	}
	for _, label := range listing.Labels {
		fmt.Fprintf(out, "%-24s #%-7s %s\n", label.Name, label.Color, label.Description)
	}
	return nil
}

func runLabelsCheck(cmd *cobra.Command, args []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	if ctrl.IsValidLabel(args[0]) {
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is a valid hazard label\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "❌ %s is not a valid hazard label\n", args[0])
	return nil
}
