package model

import "slices"

// FilterSpec is the curator's filter selection for one recomputation pass.
// A nil option does not constrain; see each field for its semantics.
type FilterSpec struct {
	// ExistenceLevels keeps proteins whose level is in the set.
	// nil means any level; an empty non-nil set keeps nothing.
	ExistenceLevels []ExistenceLevel `json:"existence_levels,omitempty" yaml:"existence_levels,omitempty" validate:"omitempty,dive,existence_level"`

	// LastReviewed keeps proteins whose watermark is in the inclusive range.
	// Never-reviewed proteins cannot satisfy it.
	LastReviewed *IntRange `json:"last_reviewed_range,omitempty" yaml:"last_reviewed_range,omitempty"`

	// SearchTerms keeps proteins where any term is a case-insensitive substring of any searchable field.
	SearchTerms []string `json:"search_terms,omitempty" yaml:"search_terms,omitempty" validate:"omitempty,max=64,dive,max=256"`

	// MentionFraction keeps mentions whose fraction is in the inclusive range.
	MentionFraction *FloatRange `json:"mention_fraction_range,omitempty" yaml:"mention_fraction_range,omitempty"`

	// Years keeps mentions whose publication year is in the inclusive range.
	Years *IntRange `json:"year_range,omitempty" yaml:"year_range,omitempty"`
}

// IntRange is an inclusive integer range
type IntRange struct {
	Min int `json:"min" yaml:"min" validate:"gte=0"`
	Max int `json:"max" yaml:"max" validate:"gte=0,gtefield=Min"`
}

// Contains reports whether v lies in [Min, Max]
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// FloatRange is an inclusive float range
type FloatRange struct {
	Min float64 `json:"min" yaml:"min" validate:"gte=0,lte=1"`
	Max float64 `json:"max" yaml:"max" validate:"gte=0,lte=1,gtefield=Min"`
}

// Contains reports whether v lies in [Min, Max]
func (r FloatRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clone returns a deep copy so a pass never observes later mutation by the caller
func (s FilterSpec) Clone() FilterSpec {
	out := FilterSpec{
		ExistenceLevels: cloneSlice(s.ExistenceLevels),
		SearchTerms:     cloneSlice(s.SearchTerms),
	}
	if s.LastReviewed != nil {
		r := *s.LastReviewed
		out.LastReviewed = &r
	}
	if s.MentionFraction != nil {
		r := *s.MentionFraction
		out.MentionFraction = &r
	}
	if s.Years != nil {
		r := *s.Years
		out.Years = &r
	}
	return out
}

// cloneSlice preserves the nil/empty distinction, which slices.Clone does not guarantee for empty input
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// AllowsLevel reports whether the existence option admits the level
func (s FilterSpec) AllowsLevel(level ExistenceLevel) bool {
	if s.ExistenceLevels == nil {
		return true
	}
	return slices.Contains(s.ExistenceLevels, level)
}
