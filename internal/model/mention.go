package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mention is a publication that mentions a protein, as scored by the text-mining service
type Mention struct {
	PublicationID   string  `json:"pmid"`                  // PubMed identifier
	Year            int     `json:"year"`                  // Publication year
	Score           float64 `json:"score"`                 // Mining-service relevance score
	MentionFraction float64 `json:"fraction_mentions"`     // Share of the document's gene mentions for this protein
	TotalGenes      int     `json:"total_genes,omitempty"` // Distinct genes mentioned in the document
	Title           string  `json:"title,omitempty"`
	Journal         string  `json:"journal,omitempty"`
	InTitle         bool    `json:"in_title"`  // Protein named in the title
	FullText        bool    `json:"full_text"` // Full text available to the mining service
}

// RawMention is a mention row as loaded from an artifact, before type coercion
type RawMention struct {
	PublicationID   Cell `json:"pmid"`
	Year            Cell `json:"year"`
	Score           Cell `json:"score"`
	MentionFraction Cell `json:"fraction_mentions"`
	TotalGenes      Cell `json:"total_genes"`
	Title           Cell `json:"title"`
	Journal         Cell `json:"journal"`
	InTitle         Cell `json:"in_title"`
	FullText        Cell `json:"full_text"`
}

// MentionIndex maps a protein ID to its raw mention table
type MentionIndex map[string][]RawMention

// Cell is an untyped table value. JSON strings, numbers, booleans and null all decode into it.
type Cell string

// UnmarshalJSON keeps the textual form of any scalar
func (c *Cell) UnmarshalJSON(data []byte) error {
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case nil:
		*c = ""
	case string:
		*c = Cell(val)
	case json.Number:
		*c = Cell(val.String())
	case bool:
		*c = Cell(strconv.FormatBool(val))
	default:
		return fmt.Errorf("cell must be a scalar, got %s", string(data))
	}
	return nil
}

// Coerce converts a raw row into a typed mention. Year and mention fraction are required;
// score and total genes may be empty. The returned error names the offending field.
func (r RawMention) Coerce() (Mention, error) {
	year, err := ParseYear(string(r.Year))
	if err != nil {
		return Mention{}, &FieldError{Field: "year", Value: string(r.Year), Err: err}
	}

	fraction, err := parseFloat(string(r.MentionFraction))
	if err != nil {
		return Mention{}, &FieldError{Field: "fraction_mentions", Value: string(r.MentionFraction), Err: err}
	}

	var score float64
	if strings.TrimSpace(string(r.Score)) != "" {
		score, err = parseFloat(string(r.Score))
		if err != nil {
			return Mention{}, &FieldError{Field: "score", Value: string(r.Score), Err: err}
		}
	}

	var totalGenes int
	if s := strings.TrimSpace(string(r.TotalGenes)); s != "" {
		if n, err := ParseYear(s); err == nil {
			totalGenes = n
		}
	}

	return Mention{
		PublicationID:   strings.TrimSpace(string(r.PublicationID)),
		Year:            year,
		Score:           score,
		MentionFraction: fraction,
		TotalGenes:      totalGenes,
		Title:           string(r.Title),
		Journal:         string(r.Journal),
		InTitle:         parseFlag(string(r.InTitle)),
		FullText:        parseFlag(string(r.FullText)),
	}, nil
}

// ParseYear parses an integer cell, accepting integral float renderings like "2018.0"
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

// parseFlag treats true/1/yes (any case) as set; everything else is unset
func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "t":
		return true
	default:
		return false
	}
}
