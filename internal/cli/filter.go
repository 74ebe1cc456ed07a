package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ppiankov/ignoromenot/internal/filter"
	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/pipeline"
	"github.com/ppiankov/ignoromenot/internal/validate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	outJSON         string
	outCSV          string
	outMD           string
	outTSVDir       string
	includeMentions bool
	noCache         bool
	noFooter        bool
	maxRows         int
	filterOpts      specOptions
)

// specOptions holds the filter flags before they are resolved against the corpus bounds
type specOptions struct {
	specFile    string
	existence   []string
	fractionMin float64
	fractionMax float64
	yearMin     int
	yearMax     int
	reviewedMin int
	reviewedMax int
	search      string
}

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter proteins and their unreviewed publication mentions",
	Long: `Filter loads a protein table and its mention index, applies protein-level and
mention-level filters in one pass, and prints the surviving proteins with their
recomputed mention counts and a summary.

Only mentions published after a protein's last review year are considered.
Range flags are inclusive; an unset end defaults to the data-derived bound.

Example:
  ignoromenot filter --proteins proteins.tsv --mentions mentions.json
  ignoromenot filter --proteins proteins.tsv --mentions mentions/ --existence PE1,PE2 --fraction-min 0.1
  ignoromenot filter --proteins corpus.db --mentions corpus.db --search "kinase,ND" --json view.json --md report.md`,
	Args: cobra.NoArgs,
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)

	addSpecFlags(filterCmd.Flags(), &filterOpts)

	// Output flags
	filterCmd.Flags().StringVar(&outJSON, "json", "", "output JSON snapshot path (optional)")
	filterCmd.Flags().StringVar(&outCSV, "csv", "", "output filtered protein table CSV path (optional)")
	filterCmd.Flags().StringVar(&outMD, "md", "", "output Markdown report path (optional)")
	filterCmd.Flags().StringVar(&outTSVDir, "tsv-dir", "", "directory for one filtered mention TSV per protein (optional)")
	filterCmd.Flags().BoolVar(&includeMentions, "include-mentions", false, "include mention tables in the JSON snapshot")
	filterCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the parsed-artifact cache")
	filterCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	filterCmd.Flags().IntVar(&maxRows, "rows", -1, "max table rows printed (0 prints all, default from config)")
}

func addSpecFlags(flags *pflag.FlagSet, o *specOptions) {
	flags.StringVar(&o.specFile, "spec", "", "filter specification file (YAML or JSON); flags override it")
	flags.StringSliceVar(&o.existence, "existence", nil, "keep proteins at these existence levels (labels, aliases or PE1..PE5)")
	flags.Float64Var(&o.fractionMin, "fraction-min", 0, "minimum mention fraction")
	flags.Float64Var(&o.fractionMax, "fraction-max", 1, "maximum mention fraction")
	flags.IntVar(&o.yearMin, "year-min", 0, "minimum publication year")
	flags.IntVar(&o.yearMax, "year-max", 0, "maximum publication year")
	flags.IntVar(&o.reviewedMin, "reviewed-min", 0, "minimum last-reviewed year (excludes never-reviewed proteins)")
	flags.IntVar(&o.reviewedMax, "reviewed-max", 0, "maximum last-reviewed year (excludes never-reviewed proteins)")
	flags.StringVar(&o.search, "search", "", "comma-separated search terms, any of which must match")
}

func runFilter(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if maxRows >= 0 {
		cfg.Output.MaxTableRows = maxRows
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
	spec, err := filterOpts.build(cmd.Flags(), bounds, classifier.Classify)
	if err != nil {
		return err
	}

	snapshot, err := session.Apply(ctx, spec)
	if err != nil {
		var specErr *validate.SpecError
		if errors.As(err, &specErr) {
			for _, problem := range specErr.Problems {
				fmt.Fprintf(os.Stderr, "  - %s\n", problem)
			}
		}
		return fmt.Errorf("filter failed: %w", err)
	}

	for _, warn := range snapshot.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: skipped mentions for %s: %s\n", warn.ProteinID, warn.Message)
	}

	return writeOutputs(cmd.OutOrStdout(), pipeline.NewRenderer(cfg.Output), snapshot, cfg.Output.MentionSort)
}

// writeOutputs prints the table and summary and writes every requested export
func writeOutputs(stdout io.Writer, r *pipeline.Renderer, snapshot *model.Snapshot, sortOrder string) error {
	if err := r.RenderTable(stdout, snapshot); err != nil {
		if !pipeline.IsRenderFallback(err) {
			return fmt.Errorf("render table: %w", err)
		}
		logger.Debug("plain table rendered", zap.Error(err))
	}
	fmt.Fprintln(stdout)
	if err := r.RenderSummary(stdout, snapshot); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	if outJSON != "" {
		if err := pipeline.WriteFile(outJSON, func(w io.Writer) error {
			return r.RenderJSON(w, snapshot, includeMentions)
		}); err != nil {
			return fmt.Errorf("JSON output failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON snapshot written to: %s\n", outJSON)
	}

	if outCSV != "" {
		if err := pipeline.WriteFile(outCSV, func(w io.Writer) error {
			return pipeline.WriteProteinsCSV(w, snapshot.Proteins)
		}); err != nil {
			return fmt.Errorf("CSV output failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Protein table written to: %s\n", outCSV)
	}

	if outMD != "" {
		if err := pipeline.WriteFile(outMD, func(w io.Writer) error {
			return r.RenderMarkdown(w, snapshot)
		}); err != nil {
			return fmt.Errorf("markdown output failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report written to: %s\n", outMD)
	}

	if outTSVDir != "" {
		n, err := writeMentionTables(outTSVDir, snapshot, sortOrder)
		if err != nil {
			return fmt.Errorf("TSV output failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ %d mention tables written to: %s\n", n, outTSVDir)
	}

	return nil
}

// writeMentionTables writes <protein_id>.tsv for every surviving protein. Nothing is
// written when any protein ID is not a plain file name.
func writeMentionTables(dir string, snapshot *model.Snapshot, sortOrder string) (int, error) {
	for _, p := range snapshot.Proteins {
		if !isPlainFileName(p.ID) {
			return 0, fmt.Errorf("protein ID %q cannot be used as a file name", p.ID)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}

	written := 0
	for _, p := range snapshot.Proteins {
		mentions, err := pipeline.SortMentions(snapshot.Mentions[p.ID], sortOrder)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, p.ID+".tsv")
		if err := pipeline.WriteFile(path, func(w io.Writer) error {
			return pipeline.WriteMentionsTSV(w, mentions)
		}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func isPlainFileName(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`) && filepath.Base(id) == id
}

// build resolves the flags into a filter specification. Options come from the spec
// file first, then from every flag set on the command line. A range with only one
// end set takes the other end from the corpus bounds.
func (o *specOptions) build(flags *pflag.FlagSet, bounds model.Bounds, classify func(string) (model.ExistenceLevel, bool)) (model.FilterSpec, error) {
	spec := model.FilterSpec{}
	if o.specFile != "" {
		loaded, err := readSpecFile(o.specFile)
		if err != nil {
			return spec, err
		}
		spec = loaded
	}

	if flags.Changed("existence") {
		levels := make([]model.ExistenceLevel, 0, len(o.existence))
		for _, raw := range o.existence {
			level, ok := classify(raw)
			if !ok {
				level, ok = presentLevel(bounds, raw)
			}
			if !ok {
				return spec, fmt.Errorf("unknown existence level %q", raw)
			}
			levels = append(levels, level)
		}
		spec.ExistenceLevels = levels
	}

	if flags.Changed("search") {
		spec.SearchTerms = filter.ParseQuery(o.search)
	}

	if flags.Changed("fraction-min") || flags.Changed("fraction-max") {
		frac := bounds.MentionFraction
		if spec.MentionFraction != nil {
			frac = *spec.MentionFraction
		}
		if flags.Changed("fraction-min") {
			frac.Min = o.fractionMin
		}
		if flags.Changed("fraction-max") {
			frac.Max = o.fractionMax
		}
		spec.MentionFraction = &frac
	}

	spec.Years = intRange(flags, "year", spec.Years, bounds.Years, o.yearMin, o.yearMax)
	spec.LastReviewed = intRange(flags, "reviewed", spec.LastReviewed, bounds.LastReviewed, o.reviewedMin, o.reviewedMax)

	return spec, nil
}

// presentLevel matches a label against the unrecognized levels found in the corpus
func presentLevel(bounds model.Bounds, raw string) (model.ExistenceLevel, bool) {
	label := strings.TrimSpace(raw)
	for level := range bounds.ExistenceLevels {
		if strings.EqualFold(string(level), label) {
			return level, true
		}
	}
	return "", false
}

// intRange applies the <name>-min and <name>-max flags to a range. An end that is not
// set comes from the current range, then the bounds, then stays open.
func intRange(flags *pflag.FlagSet, name string, current, bound *model.IntRange, min, max int) *model.IntRange {
	minSet, maxSet := flags.Changed(name+"-min"), flags.Changed(name+"-max")
	if !minSet && !maxSet {
		return current
	}

	r := model.IntRange{Min: 0, Max: math.MaxInt32}
	switch {
	case current != nil:
		r = *current
	case bound != nil:
		r = *bound
	}
	if minSet {
		r.Min = min
	}
	if maxSet {
		r.Max = max
	}
	return &r
}

// readSpecFile decodes a filter specification from YAML or JSON
func readSpecFile(path string) (model.FilterSpec, error) {
	var spec model.FilterSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("read spec file: %w", err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("parse spec file %s: %w", path, err)
	}
	return spec, nil
}
