package filter

import "github.com/ppiankov/ignoromenot/internal/model"

// Truncate returns the mentions published strictly after the protein's last-reviewed year.
// A never-reviewed protein keeps every mention. The input slice is not modified.
func Truncate(p model.Protein, mentions []model.Mention) []model.Mention {
	cutoff := p.LastReviewed.Cutoff()

	out := make([]model.Mention, 0, len(mentions))
	for _, m := range mentions {
		if m.Year > cutoff {
			out = append(out, m)
		}
	}
	return out
}
