package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// Mention sort orders
const (
	SortYearDesc     = "year_desc"
	SortYearAsc      = "year_asc"
	SortFractionDesc = "fraction_desc"
)

var mentionHeader = []string{
	"pmid", "year", "score", "fraction_mentions", "total_genes",
	"title", "journal", "in_title", "full_text",
}

var proteinHeader = []string{
	"uniprot_id", "protein_existence", "last_reviewed_pubyear",
	"gene_name", "ncbi_gene", "description", "aliases", "derived_mention_count",
}

// SortMentions returns a sorted copy of a mention table. An empty order means year_desc.
// Ties keep publication ID order so exports are stable.
func SortMentions(mentions []model.Mention, order string) ([]model.Mention, error) {
	out := append([]model.Mention(nil), mentions...)

	var less func(a, b model.Mention) bool
	switch order {
	case "", SortYearDesc:
		less = func(a, b model.Mention) bool { return a.Year > b.Year }
	case SortYearAsc:
		less = func(a, b model.Mention) bool { return a.Year < b.Year }
	case SortFractionDesc:
		less = func(a, b model.Mention) bool { return a.MentionFraction > b.MentionFraction }
	default:
		return nil, fmt.Errorf("unknown sort order %q (want %s, %s or %s)", order, SortYearDesc, SortYearAsc, SortFractionDesc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].PublicationID < out[j].PublicationID
	})
	return out, nil
}

// WriteMentionsTSV writes one protein's filtered mention table, tab separated with a header row
func WriteMentionsTSV(w io.Writer, mentions []model.Mention) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(mentionHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range mentions {
		record := []string{
			m.PublicationID,
			strconv.Itoa(m.Year),
			strconv.FormatFloat(m.Score, 'g', -1, 64),
			strconv.FormatFloat(m.MentionFraction, 'g', -1, 64),
			strconv.Itoa(m.TotalGenes),
			m.Title,
			m.Journal,
			strconv.FormatBool(m.InTitle),
			strconv.FormatBool(m.FullText),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", m.PublicationID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteProteinsCSV writes the filtered protein table with derived mention counts.
// Extra source columns follow the known ones in name order.
func WriteProteinsCSV(w io.Writer, proteins []model.Protein) error {
	extraSet := make(map[string]bool)
	for _, p := range proteins {
		for col := range p.Extra {
			extraSet[col] = true
		}
	}
	extras := make([]string, 0, len(extraSet))
	for col := range extraSet {
		extras = append(extras, col)
	}
	sort.Strings(extras)

	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string(nil), proteinHeader...), extras...)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range proteins {
		record := []string{
			p.ID,
			string(p.ExistenceLevel),
			p.LastReviewed.String(),
			p.GeneName,
			p.NCBIGene,
			p.Description,
			p.Aliases,
			strconv.Itoa(p.MentionCount),
		}
		for _, col := range extras {
			record = append(record, p.Extra[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", p.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
