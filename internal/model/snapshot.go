package model

import "time"

// Snapshot is the consistent output of one recomputation pass
type Snapshot struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Spec      FilterSpec           `json:"spec"`
	Proteins  []Protein            `json:"proteins"`           // Surviving proteins with recomputed counts
	Mentions  map[string][]Mention `json:"mentions,omitempty"` // One entry per surviving protein
	Summary   Summary              `json:"summary"`
	Warnings  []RowWarning         `json:"warnings,omitempty"` // Per-protein coercion failures, isolated
	Fallback  bool                 `json:"fallback,omitempty"` // Set when a failed pass returned a previous snapshot
	Source    SourceInfo           `json:"source"`
}

// Protein returns the surviving protein with the given ID
func (s *Snapshot) Protein(id string) (Protein, bool) {
	for _, p := range s.Proteins {
		if p.ID == id {
			return p, true
		}
	}
	return Protein{}, false
}

// Summary holds corpus-wide statistics derived from the filtered outputs only
type Summary struct {
	TotalMentions         int                    `json:"total_mentions"`
	ProteinsWithEvidence  int                    `json:"proteins_with_evidence"`
	ProteinsInView        int                    `json:"proteins_in_view"`
	ExistenceDistribution map[ExistenceLevel]int `json:"existence_distribution"`
	Metrics               []Metric               `json:"metrics,omitempty"`
}

// Metric is a summary figure with transparent derivation data
type Metric struct {
	Name        MetricName             `json:"name"`
	Value       float64                `json:"value"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// MetricName identifies a summary metric
type MetricName string

const (
	MetricTotalMentions        MetricName = "total_mentions"
	MetricProteinsWithEvidence MetricName = "proteins_with_evidence"
	MetricEvidenceCoverage     MetricName = "evidence_coverage"
	MetricMentionsPerProtein   MetricName = "mentions_per_protein"
)

// RowWarning reports a protein whose mention table was skipped for the pass
type RowWarning struct {
	ProteinID string `json:"protein_id"`
	Message   string `json:"message"`
}

// SourceInfo describes the artifacts a snapshot was computed from
type SourceInfo struct {
	ProteinsPath string    `json:"proteins_path"`
	MentionsPath string    `json:"mentions_path"`
	Fingerprint  string    `json:"fingerprint"`
	LoadedAt     time.Time `json:"loaded_at"`
	Proteins     int       `json:"proteins"`
	IndexedKeys  int       `json:"indexed_keys"`
	Orphans      int       `json:"orphans"` // Index keys with no protein row, ignored
}

// Bounds are data-derived defaults for filter widgets
type Bounds struct {
	MentionFraction  FloatRange             `json:"mention_fraction"`
	Years            *IntRange              `json:"years,omitempty"`
	LastReviewed     *IntRange              `json:"last_reviewed,omitempty"`
	ExistenceLevels  map[ExistenceLevel]int `json:"existence_levels"`
	NeverReviewed    int                    `json:"never_reviewed"`
	MalformedSkipped int                    `json:"malformed_skipped"`
}
