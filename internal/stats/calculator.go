package stats

import (
	"fmt"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// Calculator derives summary statistics from the filtered outputs of a pass
type Calculator struct{}

// NewCalculator creates a new calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate summarizes the surviving proteins. Counts come from each protein's
// derived mention count, so the proteins must already be aggregated.
func (c *Calculator) Calculate(proteins []model.Protein) model.Summary {
	summary := model.Summary{
		ProteinsInView:        len(proteins),
		ExistenceDistribution: make(map[model.ExistenceLevel]int),
	}

	for _, p := range proteins {
		summary.TotalMentions += p.MentionCount
		if p.MentionCount > 0 {
			summary.ProteinsWithEvidence++
		}
		summary.ExistenceDistribution[p.ExistenceLevel]++
	}

	summary.Metrics = []model.Metric{
		c.totalMentions(summary),
		c.proteinsWithEvidence(summary),
		c.evidenceCoverage(summary),
		c.mentionsPerProtein(summary),
	}

	return summary
}

func (c *Calculator) totalMentions(s model.Summary) model.Metric {
	return model.Metric{
		Name:        model.MetricTotalMentions,
		Value:       float64(s.TotalMentions),
		Description: fmt.Sprintf("%d publications meet the criteria", s.TotalMentions),
		Data: map[string]interface{}{
			"proteins": s.ProteinsInView,
			"formula":  "sum(derived_mention_count)",
		},
	}
}

func (c *Calculator) proteinsWithEvidence(s model.Summary) model.Metric {
	return model.Metric{
		Name:        model.MetricProteinsWithEvidence,
		Value:       float64(s.ProteinsWithEvidence),
		Description: fmt.Sprintf("%d of %d proteins have new evidence", s.ProteinsWithEvidence, s.ProteinsInView),
		Data: map[string]interface{}{
			"proteins": s.ProteinsInView,
			"formula":  "count(derived_mention_count > 0)",
		},
	}
}

// evidenceCoverage is the share of proteins in view with at least one qualifying mention
func (c *Calculator) evidenceCoverage(s model.Summary) model.Metric {
	if s.ProteinsInView == 0 {
		return model.Metric{
			Name:        model.MetricEvidenceCoverage,
			Description: "No proteins in view",
			Data:        map[string]interface{}{"proteins": 0},
		}
	}

	ratio := float64(s.ProteinsWithEvidence) / float64(s.ProteinsInView)
	return model.Metric{
		Name:        model.MetricEvidenceCoverage,
		Value:       ratio,
		Description: fmt.Sprintf("Evidence coverage: %.1f%%", ratio*100),
		Data: map[string]interface{}{
			"with_evidence": s.ProteinsWithEvidence,
			"proteins":      s.ProteinsInView,
			"ratio":         ratio,
			"formula":       "proteins_with_evidence / proteins_in_view",
		},
	}
}

// mentionsPerProtein averages over proteins that have evidence, not all proteins
func (c *Calculator) mentionsPerProtein(s model.Summary) model.Metric {
	if s.ProteinsWithEvidence == 0 {
		return model.Metric{
			Name:        model.MetricMentionsPerProtein,
			Description: "No proteins with evidence",
			Data:        map[string]interface{}{"with_evidence": 0},
		}
	}

	mean := float64(s.TotalMentions) / float64(s.ProteinsWithEvidence)
	return model.Metric{
		Name:        model.MetricMentionsPerProtein,
		Value:       mean,
		Description: fmt.Sprintf("%.2f mentions per protein with evidence", mean),
		Data: map[string]interface{}{
			"total_mentions": s.TotalMentions,
			"with_evidence":  s.ProteinsWithEvidence,
			"formula":        "total_mentions / proteins_with_evidence",
		},
	}
}
