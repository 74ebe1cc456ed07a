package source

import (
	"fmt"
	"strings"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// Protein table columns
const (
	colProteinID    = "uniprot_id"
	colExistence    = "protein_existence"
	colLastReviewed = "last_reviewed_pubyear"
	colGeneName     = "gene_name"
	colNCBIGene     = "ncbi_gene"
	colDescription  = "description"
	colAliases      = "aliases"
)

// Mention table columns
const (
	colPMID       = "pmid"
	colYear       = "year"
	colScore      = "score"
	colFraction   = "fraction_mentions"
	colTotalGenes = "total_genes"
	colTitle      = "title"
	colJournal    = "journal"
	colInTitle    = "in_title"
	colFullText   = "full_text"
)

var requiredProteinColumns = []string{colProteinID, colExistence, colLastReviewed}

var requiredMentionColumns = []string{colPMID, colYear, colFraction}

// columnAliases maps alternative header names onto canonical ones
var columnAliases = map[string]string{
	"protein_id":         colProteinID,
	"existence_level":    colExistence,
	"last_reviewed_year": colLastReviewed,
	"gene_description":   colDescription,
	"gene_aliases":       colAliases,
	"publication_id":     colPMID,
	"mention_fraction":   colFraction,
}

// canonicalColumn normalizes a header cell
func canonicalColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	if canonical, ok := columnAliases[name]; ok {
		return canonical
	}
	return name
}

// requireColumns returns ErrMissingColumn naming every absent column
func requireColumns(header []string, required []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", model.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// mentionFromRow builds a raw mention from a row keyed by canonical column
func mentionFromRow(row map[string]string) model.RawMention {
	return model.RawMention{
		PublicationID:   model.Cell(row[colPMID]),
		Year:            model.Cell(row[colYear]),
		Score:           model.Cell(row[colScore]),
		MentionFraction: model.Cell(row[colFraction]),
		TotalGenes:      model.Cell(row[colTotalGenes]),
		Title:           model.Cell(CleanTitle(row[colTitle])),
		Journal:         model.Cell(row[colJournal]),
		InTitle:         model.Cell(row[colInTitle]),
		FullText:        model.Cell(row[colFullText]),
	}
}

// knownProteinColumns are mapped onto Protein fields rather than Extra
var knownProteinColumns = map[string]bool{
	colProteinID:    true,
	colExistence:    true,
	colLastReviewed: true,
	colGeneName:     true,
	colNCBIGene:     true,
	colDescription:  true,
	colAliases:      true,
	// recomputed on every pass, never read from the source
	"num_unreviewed_publications": true,
	"derived_mention_count":       true,
}
