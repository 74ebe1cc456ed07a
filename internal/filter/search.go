package filter

import (
	"strings"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// ParseQuery splits a comma-separated search box value into terms.
// Blank terms are dropped; an all-blank query yields no terms.
func ParseQuery(query string) []string {
	var terms []string
	for _, part := range strings.Split(query, ",") {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// normalizeTerms lowercases and trims terms, dropping blanks
func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// matchesSearch reports whether any term is a case-insensitive substring of any of the
// given fields. No terms matches every protein. Terms must already be normalized.
func matchesSearch(p *model.Protein, terms []string, fields []model.SearchField) bool {
	if len(terms) == 0 {
		return true
	}

	for _, field := range fields {
		value, ok := p.FieldValue(field)
		if !ok || value == "" {
			continue
		}
		lower := strings.ToLower(value)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}

// MatchesSearch is the exported form of the search predicate for a single protein
func MatchesSearch(p model.Protein, terms []string, fields []model.SearchField) bool {
	if len(fields) == 0 {
		fields = model.DefaultSearchFields()
	}
	return matchesSearch(&p, normalizeTerms(terms), fields)
}
