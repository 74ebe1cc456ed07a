package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/spf13/cobra"
)

var boundsJSON bool

// boundsCmd represents the bounds command
var boundsCmd = &cobra.Command{
	Use:   "bounds",
	Short: "Show data-derived filter bounds",
	Long: `Bounds loads the artifacts and prints the ranges the filters default to: the mention
fraction range clamped to [0, 1], the publication year range of unreviewed mentions,
the last-reviewed year range and the existence level distribution.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		session, _, err := openSession(ctx, cfg)
		if err != nil {
			return err
		}
		bounds, err := session.Bounds()
		if err != nil {
			return err
		}

		if boundsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(bounds)
		}
		printBounds(cmd.OutOrStdout(), bounds)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boundsCmd)
	boundsCmd.Flags().BoolVar(&boundsJSON, "json", false, "print bounds as JSON")
}

func printBounds(w io.Writer, b model.Bounds) {
	fmt.Fprintf(w, "Mention fraction: %.4g .. %.4g\n", b.MentionFraction.Min, b.MentionFraction.Max)
	fmt.Fprintf(w, "Publication years: %s\n", formatIntRange(b.Years))
	fmt.Fprintf(w, "Last reviewed: %s (never reviewed: %d)\n", formatIntRange(b.LastReviewed), b.NeverReviewed)
	if b.MalformedSkipped > 0 {
		fmt.Fprintf(w, "Malformed mention tables skipped: %d\n", b.MalformedSkipped)
	}

	fmt.Fprintln(w, "Existence levels:")
	for _, level := range model.ExistenceLevels() {
		if n := b.ExistenceLevels[level]; n > 0 {
			fmt.Fprintf(w, "  %-30s %d\n", level, n)
		}
	}
	for level, n := range b.ExistenceLevels {
		if !level.IsKnown() {
			fmt.Fprintf(w, "  %-30s %d (unrecognized)\n", level, n)
		}
	}
}

func formatIntRange(r *model.IntRange) string {
	if r == nil {
		return "none"
	}
	return fmt.Sprintf("%d .. %d", r.Min, r.Max)
}
