package filter

import "github.com/ppiankov/ignoromenot/internal/model"

// Mentions returns the mentions satisfying both the mention-fraction and year options.
// Unset options do not constrain. The input slice is not modified.
func Mentions(mentions []model.Mention, spec model.FilterSpec) []model.Mention {
	out := make([]model.Mention, 0, len(mentions))
	for _, m := range mentions {
		if MentionMatches(m, spec) {
			out = append(out, m)
		}
	}
	return out
}

// MentionMatches reports whether a single mention passes the mention-level options
func MentionMatches(m model.Mention, spec model.FilterSpec) bool {
	if spec.MentionFraction != nil && !spec.MentionFraction.Contains(m.MentionFraction) {
		return false
	}
	if spec.Years != nil && !spec.Years.Contains(m.Year) {
		return false
	}
	return true
}

// Coerce converts a protein's raw mention table to typed mentions. The first row that
// fails coercion aborts the table with a RowProcessingError for that protein.
func Coerce(proteinID string, raw []model.RawMention) ([]model.Mention, error) {
	out := make([]model.Mention, 0, len(raw))
	for i, r := range raw {
		m, err := r.Coerce()
		if err != nil {
			return nil, &model.RowProcessingError{ProteinID: proteinID, Row: i, Err: err}
		}
		out = append(out, m)
	}
	return out, nil
}

// Table runs coercion, watermark truncation and mention-level filtering for one protein.
// On error the protein contributes no mentions.
func Table(p model.Protein, raw []model.RawMention, spec model.FilterSpec) ([]model.Mention, error) {
	typed, err := Coerce(p.ID, raw)
	if err != nil {
		return nil, err
	}
	return Mentions(Truncate(p, typed), spec), nil
}
