package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/ppiankov/ignoromenot/internal/model"
)

// Renderer writes snapshots for humans and machines
type Renderer struct {
	includeFooter bool
	maxRows       int
}

// NewRenderer creates a renderer from output settings
func NewRenderer(cfg model.OutputConfig) *Renderer {
	return &Renderer{
		includeFooter: cfg.IncludeFooter,
		maxRows:       cfg.MaxTableRows,
	}
}

// Row colors follow evidence strength, strongest first
var existenceStyles = map[model.ExistenceLevel]lipgloss.Style{
	model.ExistenceProtein:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	model.ExistenceTranscript: lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	model.ExistenceHomology:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	model.ExistencePredicted:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	model.ExistenceUncertain:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var tableHeader = []string{"Protein", "Gene", "Existence", "Last reviewed", "Mentions"}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RenderTable writes the filtered protein table. When w is not a terminal, or the
// styled table cannot be built, a plain tab-aligned dump is written instead and a
// *model.RenderFallbackError is returned for logging.
func (r *Renderer) RenderTable(w io.Writer, snap *model.Snapshot) error {
	if !IsTerminal(w) {
		if err := r.renderPlain(w, snap); err != nil {
			return err
		}
		return &model.RenderFallbackError{Reason: "output is not a terminal"}
	}

	out, err := r.styledTable(snap)
	if err != nil {
		if perr := r.renderPlain(w, snap); perr != nil {
			return perr
		}
		return &model.RenderFallbackError{Reason: "styled table failed", Err: err}
	}

	_, err = fmt.Fprintln(w, out)
	return err
}

func (r *Renderer) styledTable(snap *model.Snapshot) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render panic: %v", rec)
		}
	}()

	proteins := r.visible(snap.Proteins)
	rows := make([][]string, len(proteins))
	for i, p := range proteins {
		rows[i] = tableRow(p)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(tableHeader...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(proteins) {
				if style, ok := existenceStyles[proteins[row].ExistenceLevel]; ok {
					return style.Padding(0, 1)
				}
			}
			return cellStyle
		})

	out = t.Render()
	if hidden := len(snap.Proteins) - len(proteins); hidden > 0 {
		out += fmt.Sprintf("\n… %d more rows (raise output.max_table_rows to show them)", hidden)
	}
	return out, nil
}

func (r *Renderer) renderPlain(w io.Writer, snap *model.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(tableHeader, "\t")); err != nil {
		return err
	}

	proteins := r.visible(snap.Proteins)
	for _, p := range proteins {
		if _, err := fmt.Fprintln(tw, strings.Join(tableRow(p), "\t")); err != nil {
			return err
		}
	}
	if hidden := len(snap.Proteins) - len(proteins); hidden > 0 {
		if _, err := fmt.Fprintf(tw, "... %d more rows\n", hidden); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func (r *Renderer) visible(proteins []model.Protein) []model.Protein {
	if r.maxRows > 0 && len(proteins) > r.maxRows {
		return proteins[:r.maxRows]
	}
	return proteins
}

func tableRow(p model.Protein) []string {
	reviewed := p.LastReviewed.String()
	if reviewed == "" {
		reviewed = "never"
	}
	return []string{p.ID, p.GeneName, string(p.ExistenceLevel), reviewed, strconv.Itoa(p.MentionCount)}
}

// RenderSummary writes the summary statistics and any skipped tables
func (r *Renderer) RenderSummary(w io.Writer, snap *model.Snapshot) error {
	s := snap.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "\nPublications meeting criteria: %d\n", s.TotalMentions)
	fmt.Fprintf(&b, "Proteins with new evidence:    %d of %d\n", s.ProteinsWithEvidence, s.ProteinsInView)

	if len(s.ExistenceDistribution) > 0 {
		b.WriteString("\nExistence levels:\n")
		for _, level := range sortedLevels(s.ExistenceDistribution) {
			fmt.Fprintf(&b, "  %-30s %d\n", level, s.ExistenceDistribution[level])
		}
	}

	if len(snap.Warnings) > 0 {
		fmt.Fprintf(&b, "\n⚠ %d mention tables skipped (malformed rows):\n", len(snap.Warnings))
		for _, warn := range snap.Warnings {
			fmt.Fprintf(&b, "  %s: %s\n", warn.ProteinID, warn.Message)
		}
	}
	if snap.Fallback {
		b.WriteString("\n⚠ Showing the previous snapshot; the last pass failed.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the snapshot as indented JSON. Mentions are included only when asked.
func (r *Renderer) RenderJSON(w io.Writer, snap *model.Snapshot, includeMentions bool) error {
	out := *snap
	if !includeMentions {
		out.Mentions = nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// RenderMarkdown writes a summary report
func (r *Renderer) RenderMarkdown(w io.Writer, snap *model.Snapshot) error {
	var b strings.Builder
	s := snap.Summary

	b.WriteString("# Unreviewed Publication Evidence\n\n")
	fmt.Fprintf(&b, "- Snapshot: `%s`\n", snap.ID)
	fmt.Fprintf(&b, "- Created: %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if snap.Source.ProteinsPath != "" {
		fmt.Fprintf(&b, "- Sources: `%s`, `%s`\n", snap.Source.ProteinsPath, snap.Source.MentionsPath)
	}
	b.WriteString("\n## Criteria\n\n")
	b.WriteString(describeSpec(snap.Spec))

	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Metric | Value | Formula |\n|---|---|---|\n")
	for _, m := range s.Metrics {
		formula, _ := m.Data["formula"].(string)
		fmt.Fprintf(&b, "| %s | %s | `%s` |\n", m.Name, formatValue(m.Value), formula)
	}

	if len(s.ExistenceDistribution) > 0 {
		b.WriteString("\n## Existence levels\n\n| Level | Proteins |\n|---|---|\n")
		for _, level := range sortedLevels(s.ExistenceDistribution) {
			fmt.Fprintf(&b, "| %s | %d |\n", level, s.ExistenceDistribution[level])
		}
	}

	b.WriteString("\n## Proteins\n\n| Protein | Gene | Existence | Last reviewed | Mentions |\n|---|---|---|---|---|\n")
	for _, p := range r.visible(snap.Proteins) {
		row := tableRow(p)
		for i := range row {
			row[i] = strings.ReplaceAll(row[i], "|", `\|`)
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(row, " | "))
	}

	if len(snap.Warnings) > 0 {
		b.WriteString("\n## Skipped mention tables\n\n")
		for _, warn := range snap.Warnings {
			fmt.Fprintf(&b, "- `%s`: %s\n", warn.ProteinID, warn.Message)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n*Counts cover publications newer than each protein's last review that meet the criteria above.*\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders into a newly created file
func WriteFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return render(f)
}

// IsRenderFallback reports whether err only signals the plain-text fallback
func IsRenderFallback(err error) bool {
	var fb *model.RenderFallbackError
	return errors.As(err, &fb)
}

func describeSpec(spec model.FilterSpec) string {
	var lines []string
	if spec.ExistenceLevels != nil {
		levels := make([]string, len(spec.ExistenceLevels))
		for i, l := range spec.ExistenceLevels {
			levels[i] = string(l)
		}
		lines = append(lines, fmt.Sprintf("- Existence levels: %s", strings.Join(levels, ", ")))
	}
	if spec.LastReviewed != nil {
		lines = append(lines, fmt.Sprintf("- Last reviewed: %d to %d", spec.LastReviewed.Min, spec.LastReviewed.Max))
	}
	if len(spec.SearchTerms) > 0 {
		lines = append(lines, fmt.Sprintf("- Search: %s", strings.Join(spec.SearchTerms, ", ")))
	}
	if spec.MentionFraction != nil {
		lines = append(lines, fmt.Sprintf("- Mention fraction: %g to %g", spec.MentionFraction.Min, spec.MentionFraction.Max))
	}
	if spec.Years != nil {
		lines = append(lines, fmt.Sprintf("- Publication years: %d to %d", spec.Years.Min, spec.Years.Max))
	}
	if len(lines) == 0 {
		return "No criteria (unfiltered view)\n"
	}
	return strings.Join(lines, "\n") + "\n"
}

func sortedLevels(dist map[model.ExistenceLevel]int) []model.ExistenceLevel {
	levels := make([]model.ExistenceLevel, 0, len(dist))
	for level := range dist {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool {
		ri, rj := rankOrLast(levels[i]), rankOrLast(levels[j])
		if ri != rj {
			return ri < rj
		}
		return levels[i] < levels[j]
	})
	return levels
}

// rankOrLast puts unrecognized levels after the canonical ones
func rankOrLast(level model.ExistenceLevel) int {
	if r := level.Rank(); r > 0 {
		return r
	}
	return len(model.ExistenceLevels()) + 1
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
