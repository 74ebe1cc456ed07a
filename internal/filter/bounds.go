package filter

import (
	"math"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// ComputeBounds derives filter widget defaults from the corpus: the mention fraction range
// clamped to [0, 1], the publication year range after watermark truncation, the range of
// last-reviewed years, and the existence level distribution. Orphan index keys and
// malformed tables are left out.
func ComputeBounds(table []model.Protein, index model.MentionIndex) model.Bounds {
	bounds := model.Bounds{
		MentionFraction: model.FloatRange{Min: 0, Max: 1},
		ExistenceLevels: make(map[model.ExistenceLevel]int),
	}

	minFrac, maxFrac := math.Inf(1), math.Inf(-1)
	var years, reviewed *model.IntRange

	for _, p := range table {
		bounds.ExistenceLevels[p.ExistenceLevel]++

		if p.LastReviewed.Valid {
			reviewed = widen(reviewed, p.LastReviewed.Year)
		} else {
			bounds.NeverReviewed++
		}

		raw, ok := index[p.ID]
		if !ok {
			continue
		}
		typed, err := Coerce(p.ID, raw)
		if err != nil {
			bounds.MalformedSkipped++
			continue
		}
		for _, m := range Truncate(p, typed) {
			minFrac = math.Min(minFrac, m.MentionFraction)
			maxFrac = math.Max(maxFrac, m.MentionFraction)
			years = widen(years, m.Year)
		}
	}

	if !math.IsInf(minFrac, 1) {
		bounds.MentionFraction = model.FloatRange{
			Min: math.Max(0, math.Min(minFrac, 1)),
			Max: math.Min(1, math.Max(maxFrac, 0)),
		}
	}
	bounds.Years = years
	bounds.LastReviewed = reviewed

	return bounds
}

// DefaultSpec returns a specification whose ranges span the bounds, which mirrors the
// initial state of the filter widgets
func DefaultSpec(b model.Bounds) model.FilterSpec {
	spec := model.FilterSpec{}

	frac := b.MentionFraction
	spec.MentionFraction = &frac

	if b.Years != nil {
		years := *b.Years
		spec.Years = &years
	}
	if b.LastReviewed != nil {
		reviewed := *b.LastReviewed
		spec.LastReviewed = &reviewed
	}
	return spec
}

func widen(r *model.IntRange, v int) *model.IntRange {
	if r == nil {
		return &model.IntRange{Min: v, Max: v}
	}
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}
