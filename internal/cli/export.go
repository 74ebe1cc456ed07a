package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/ignoromenot/internal/pipeline"
	"github.com/ppiankov/ignoromenot/internal/validate"
	"github.com/spf13/cobra"
)

var (
	exportOut  string
	exportSort string
	exportOpts specOptions
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <protein_id>...",
	Short: "Export the filtered mention table of one or more proteins as TSV",
	Long: `Export applies the filter flags and writes the surviving mentions of each named
protein as a tab-separated table with a header row. A protein that does not survive
the protein-level filters is an error.

Example:
  ignoromenot export P04637 --proteins proteins.tsv --mentions mentions.json
  ignoromenot export P04637 Q9Y6K9 --fraction-min 0.2 --sort fraction_desc --out p53.tsv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	addSpecFlags(exportCmd.Flags(), &exportOpts)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default: stdout)")
	exportCmd.Flags().StringVar(&exportSort, "sort", "", "mention order: year_desc, year_asc or fraction_desc (default from config)")
	exportCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the parsed-artifact cache")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	order := cfg.Output.MentionSort
	if exportSort != "" {
		order = exportSort
	}

	session, _, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	bounds, err := session.Bounds()
	if err != nil {
		return err
	}

	classifier := validate.NewExistenceClassifier(&cfg.Existence)
	spec, err := exportOpts.build(cmd.Flags(), bounds, classifier.Classify)
	if err != nil {
		return err
	}
	snapshot, err := session.Apply(ctx, spec)
	if err != nil {
		return fmt.Errorf("filter failed: %w", err)
	}

	write := func(w io.Writer) error {
		for i, id := range args {
			if _, ok := snapshot.Protein(id); !ok {
				return fmt.Errorf("protein %s is not in the filtered view", id)
			}
			mentions, err := pipeline.SortMentions(snapshot.Mentions[id], order)
			if err != nil {
				return err
			}
			if len(args) > 1 {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "# %s\n", id)
			}
			if err := pipeline.WriteMentionsTSV(w, mentions); err != nil {
				return err
			}
		}
		return nil
	}

	if exportOut == "" {
		return write(cmd.OutOrStdout())
	}
	if err := pipeline.WriteFile(exportOut, write); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Mention table written to: %s\n", exportOut)
	return nil
}
