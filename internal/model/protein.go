package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Protein is one row of the protein table under review
type Protein struct {
	ID             string            `json:"protein_id"`            // UniProt accession, primary key
	ExistenceLevel ExistenceLevel    `json:"existence_level"`       // Evidence-strength classification
	LastReviewed   ReviewYear        `json:"last_reviewed_year"`    // Watermark of the last manual review
	GeneName       string            `json:"gene_name,omitempty"`   // Primary gene symbol
	NCBIGene       string            `json:"ncbi_gene,omitempty"`   // NCBI Gene identifier
	Description    string            `json:"description,omitempty"` // Free-text gene description
	Aliases        string            `json:"aliases,omitempty"`     // Alternative gene symbols
	Extra          map[string]string `json:"extra,omitempty"`       // Display-only source columns, never searched
	MentionCount   int               `json:"derived_mention_count"` // Recomputed on every pass
}

// ExistenceLevel is the protein existence classification
type ExistenceLevel string

const (
	ExistenceProtein    ExistenceLevel = "Evidence at protein level"
	ExistenceTranscript ExistenceLevel = "Evidence at transcript level"
	ExistenceHomology   ExistenceLevel = "Inferred from homology"
	ExistencePredicted  ExistenceLevel = "Predicted"
	ExistenceUncertain  ExistenceLevel = "Uncertain"
)

// ExistenceLevels lists the canonical levels, strongest evidence first
func ExistenceLevels() []ExistenceLevel {
	return []ExistenceLevel{
		ExistenceProtein,
		ExistenceTranscript,
		ExistenceHomology,
		ExistencePredicted,
		ExistenceUncertain,
	}
}

// IsKnown reports whether the level is one of the canonical labels
func (l ExistenceLevel) IsKnown() bool {
	for _, known := range ExistenceLevels() {
		if l == known {
			return true
		}
	}
	return false
}

// Rank orders levels by evidence strength (1 strongest, 0 unknown)
func (l ExistenceLevel) Rank() int {
	for i, known := range ExistenceLevels() {
		if l == known {
			return i + 1
		}
	}
	return 0
}

// ReviewYear is the last-reviewed watermark. The zero value means never reviewed,
// which is distinct from a review in year 0.
type ReviewYear struct {
	Year  int
	Valid bool
}

// NeverReviewed is the watermark of a protein with no prior review
var NeverReviewed = ReviewYear{}

// ReviewedIn returns a watermark set to the given year
func ReviewedIn(year int) ReviewYear {
	return ReviewYear{Year: year, Valid: true}
}

// Cutoff returns the year mentions must exceed to survive truncation
func (r ReviewYear) Cutoff() int {
	if !r.Valid {
		return 0
	}
	return r.Year
}

func (r ReviewYear) String() string {
	if !r.Valid {
		return ""
	}
	return strconv.Itoa(r.Year)
}

// ParseReviewYear parses a watermark cell. Empty, "nan", "na" and "null" mean never reviewed.
// Float renderings such as "2018.0" are accepted.
func ParseReviewYear(s string) (ReviewYear, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null", "none":
		return NeverReviewed, nil
	}

	year, err := ParseYear(s)
	if err != nil {
		return NeverReviewed, fmt.Errorf("parse review year %q: %w", s, err)
	}
	return ReviewedIn(year), nil
}

// MarshalJSON encodes the watermark as a number or null
func (r ReviewYear) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(r.Year)), nil
}

// UnmarshalJSON accepts a number, a numeric string or null
func (r *ReviewYear) UnmarshalJSON(data []byte) error {
	var cell Cell
	if err := json.Unmarshal(data, &cell); err != nil {
		return err
	}
	parsed, err := ParseReviewYear(string(cell))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML encodes the watermark as an int or null
func (r ReviewYear) MarshalYAML() (interface{}, error) {
	if !r.Valid {
		return nil, nil
	}
	return r.Year, nil
}

// SearchField names a protein field eligible for free-text search
type SearchField string

const (
	SearchFieldID          SearchField = "protein_id"
	SearchFieldGeneName    SearchField = "gene_name"
	SearchFieldNCBIGene    SearchField = "ncbi_gene"
	SearchFieldDescription SearchField = "description"
	SearchFieldAliases     SearchField = "aliases"
	SearchFieldExistence   SearchField = "existence_level"
)

// DefaultSearchFields is the searchable field set used when none is configured
func DefaultSearchFields() []SearchField {
	return []SearchField{
		SearchFieldID,
		SearchFieldGeneName,
		SearchFieldNCBIGene,
		SearchFieldDescription,
		SearchFieldAliases,
		SearchFieldExistence,
	}
}

// FieldValue returns the value of a searchable field
func (p *Protein) FieldValue(field SearchField) (string, bool) {
	switch field {
	case SearchFieldID:
		return p.ID, true
	case SearchFieldGeneName:
		return p.GeneName, true
	case SearchFieldNCBIGene:
		return p.NCBIGene, true
	case SearchFieldDescription:
		return p.Description, true
	case SearchFieldAliases:
		return p.Aliases, true
	case SearchFieldExistence:
		return string(p.ExistenceLevel), true
	default:
		return "", false
	}
}
