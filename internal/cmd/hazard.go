package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hazardlog/pkg/controller"
	"hazardlog/pkg/fuzzy"
	"hazardlog/pkg/github"
	"hazardlog/pkg/labels"
)

var (
	hazardTitle   string
	hazardBody    string
	hazardLabels  []string
	hazardComment string
)

// errNoHazards is returned when a hazard must be picked but none are open
var errNoHazards = errors.New("no open hazards")

var hazardCmd = &cobra.Command{
	Use:   "hazard",
	Short: "Log, inspect and comment on hazards",
	Long: `Commands for hazards. Each hazard is a GitHub issue carrying labels from
the label policy.

Available commands:
  log      - Record a new hazard
  list     - List open hazards
  show     - Show one hazard with its comments
  comment  - Add a comment to a hazard
  open     - Open a hazard in the browser`,
}

var hazardLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a new hazard",
	Long: `Record a new hazard. Labels must come from the label policy. When no
--label is given and the terminal is interactive, labels are picked from the
policy.`,
	Args: cobra.NoArgs,
	RunE: runHazardLog,
}

var hazardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open hazards, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHazardList,
}

var hazardShowCmd = &cobra.Command{
	Use:   "show [number]",
	Short: "Show one hazard with its comments",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHazardShow,
}

var hazardCommentCmd = &cobra.Command{
	Use:   "comment [number]",
	Short: "Add a comment to a hazard",
	Long: `Add a comment to a hazard. Without a number the hazard is picked from the
open hazards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHazardComment,
}

var hazardOpenCmd = &cobra.Command{
	Use:   "open [number]",
	Short: "Open a hazard in the browser",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHazardOpen,
}

func init() {
	hazardLogCmd.Flags().StringVarP(&hazardTitle, "title", "t", "", "Hazard title (required)")
	hazardLogCmd.Flags().StringVarP(&hazardBody, "body", "b", "", "Hazard description")
	hazardLogCmd.Flags().StringSliceVarP(&hazardLabels, "label", "l", nil, "Hazard label, repeatable")
	_ = hazardLogCmd.MarkFlagRequired("title")

	hazardCommentCmd.Flags().StringVarP(&hazardComment, "message", "m", "", "Comment text (required)")
	_ = hazardCommentCmd.MarkFlagRequired("message")

	hazardCmd.AddCommand(hazardLogCmd)
	hazardCmd.AddCommand(hazardListCmd)
	hazardCmd.AddCommand(hazardShowCmd)
	hazardCmd.AddCommand(hazardCommentCmd)
	hazardCmd.AddCommand(hazardOpenCmd)
}

func runHazardLog(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	selected := hazardLabels
	if len(selected) == 0 && interactive() {
		selected, err = pickLabels(ctrl)
		if err != nil {
			return err
		}
	}

	hazard, err := ctrl.LogHazard(cmd.Context(), hazardTitle, hazardBody, selected)
	if err != nil {
		return fmt.Errorf("failed to log hazard: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged hazard #%d: %s\n", hazard.Number, hazard.Title)
	fmt.Fprintf(cmd.OutOrStdout(), "🔗 %s\n", hazard.URL)
	return nil
}

func runHazardList(cmd *cobra.Command, _ []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	hazards, err := ctrl.OpenHazards(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list hazards: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(hazards) == 0 {
		fmt.Fprintln(out, "📋 No open hazards")
		return nil
	}

	fmt.Fprintf(out, "📋 Found %d open hazard(s):\n", len(hazards))
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, h := range hazards {
		fmt.Fprintf(out, "#%-5d %s\n", h.Number, h.Title)
		if len(h.Labels) > 0 {
			fmt.Fprintf(out, "       🏷️  %s\n", strings.Join(h.Labels, ", "))
		}
	}
	return nil
}

func runHazardShow(cmd *cobra.Command, args []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	number, err := hazardNumber(cmd, ctrl, args)
	if err != nil {
		return err
	}

	hazard, err := ctrl.Hazard(cmd.Context(), number)
	if err != nil {
		return fmt.Errorf("failed to get hazard: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "#%d %s [%s]\n", hazard.Number, hazard.Title, hazard.State)
	if len(hazard.Labels) > 0 {
		fmt.Fprintf(out, "🏷️  %s\n", strings.Join(hazard.Labels, ", "))
	}
	fmt.Fprintf(out, "🔗 %s\n", hazard.URL)
	if hazard.Body != "" {
		fmt.Fprintf(out, "\n%s\n", hazard.Body)
	}
	if len(hazard.Comments) > 0 {
		fmt.Fprintf(out, "\n💬 %d comment(s):\n", len(hazard.Comments))
		for _, c := range hazard.Comments {
			fmt.Fprintf(out, "%s\n", strings.Repeat("-", 60))
			fmt.Fprintf(out, "%s (%s)\n%s\n", c.Author, c.CreatedAt.Format("2006-01-02 15:04"), c.Body)
		}
	}
	return nil
}

func runHazardComment(cmd *cobra.Command, args []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	number, err := hazardNumber(cmd, ctrl, args)
	if err != nil {
		return err
	}

	comment, err := ctrl.AddComment(cmd.Context(), number, hazardComment)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Comment %d added to hazard #%d\n", comment.ID, number)
	return nil
}

func runHazardOpen(cmd *cobra.Command, args []string) error {
	ctrl, err := newController()
	if err != nil {
		return err
	}

	number, err := hazardNumber(cmd, ctrl, args)
	if err != nil {
		return err
	}

	hazard, err := ctrl.Hazard(cmd.Context(), number)
	if err != nil {
		return fmt.Errorf("failed to get hazard: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🌐 Opening %s\n", hazard.URL)
	if err := newOpener().Open(hazard.URL); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// hazardNumber parses the hazard number argument, or picks an open hazard
// when none was given on an interactive terminal.
func hazardNumber(cmd *cobra.Command, ctrl *controller.Controller, args []string) (int, error) {
	if len(args) > 0 {
		number, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
		if err != nil || number <= 0 {
			return 0, fmt.Errorf("%w: invalid hazard number %q", github.ErrInvalidArgument, args[0])
		}
		return number, nil
	}
	if !interactive() {
		return 0, fmt.Errorf("%w: hazard number is required", github.ErrInvalidArgument)
	}
	return pickHazard(cmd, ctrl)
}

func pickHazard(cmd *cobra.Command, ctrl *controller.Controller) (int, error) {
	hazards, err := ctrl.OpenHazards(cmd.Context())
	if err != nil {
		return 0, fmt.Errorf("failed to list hazards: %w", err)
	}
	if len(hazards) == 0 {
		return 0, errNoHazards
	}

	options := make([]fuzzy.Option, 0, len(hazards))
	for _, h := range hazards {
		options = append(options, fuzzy.Option{
			Value:       strconv.Itoa(h.Number),
			Description: h.Title,
		})
	}

	picker := newPicker("Select hazard: ")
	if err := picker.SetOptions(options); err != nil {
		return 0, err
	}
	selected, err := picker.Select()
	if err != nil {
		return 0, fmt.Errorf("failed to select hazard: %w", err)
	}
	return strconv.Atoi(selected)
}

func pickLabels(ctrl *controller.Controller) ([]string, error) {
	listing, err := ctrl.AvailableLabels(labels.DetailFull)
	if err != nil {
		return nil, err
	}

	options := make([]fuzzy.Option, 0, listing.Len())
	for _, label := range listing.Labels {
		options = append(options, fuzzy.Option{Value: label.Name, Description: label.Description})
	}

	picker := newPicker("Select hazard labels: ")
	if err := picker.SetOptions(options); err != nil {
		return nil, err
	}
	selected, err := picker.SelectMany()
	if err != nil {
		return nil, fmt.Errorf("failed to select labels: %w", err)
	}
	return selected, nil
}
