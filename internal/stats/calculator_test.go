package stats

import (
	"math"
	"testing"

	"github.com/ppiankov/ignoromenot/internal/model"
)

func metricByName(t *testing.T, s model.Summary, name model.MetricName) model.Metric {
	t.Helper()
	for _, m := range s.Metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %s not found", name)
	return model.Metric{}
}

func TestCalculator_Calculate(t *testing.T) {
	proteins := []model.Protein{
		{ID: "P1", ExistenceLevel: model.ExistencePredicted, MentionCount: 3},
		{ID: "P2", ExistenceLevel: model.ExistencePredicted, MentionCount: 0},
		{ID: "P3", ExistenceLevel: model.ExistenceUncertain, MentionCount: 1},
		{ID: "P4", ExistenceLevel: model.ExistenceHomology, MentionCount: 0},
	}

	s := NewCalculator().Calculate(proteins)

	if s.TotalMentions != 4 {
		t.Errorf("Expected 4 total mentions, got %d", s.TotalMentions)
	}
	if s.ProteinsWithEvidence != 2 {
		t.Errorf("Expected 2 proteins with evidence, got %d", s.ProteinsWithEvidence)
	}
	if s.ProteinsInView != 4 {
		t.Errorf("Expected 4 proteins in view, got %d", s.ProteinsInView)
	}
	if s.ExistenceDistribution[model.ExistencePredicted] != 2 {
		t.Errorf("Expected 2 predicted proteins, got %d", s.ExistenceDistribution[model.ExistencePredicted])
	}

	coverage := metricByName(t, s, model.MetricEvidenceCoverage)
	if math.Abs(coverage.Value-0.5) > 1e-9 {
		t.Errorf("Expected coverage 0.5, got %f", coverage.Value)
	}
	if coverage.Data["formula"] == nil {
		t.Error("Expected coverage to carry its formula")
	}

	perProtein := metricByName(t, s, model.MetricMentionsPerProtein)
	if math.Abs(perProtein.Value-2.0) > 1e-9 {
		t.Errorf("Expected 2 mentions per protein with evidence, got %f", perProtein.Value)
	}
}

func TestCalculator_Empty(t *testing.T) {
	s := NewCalculator().Calculate(nil)

	if s.TotalMentions != 0 || s.ProteinsWithEvidence != 0 || s.ProteinsInView != 0 {
		t.Errorf("Expected zero summary, got %+v", s)
	}
	if s.ExistenceDistribution == nil {
		t.Error("Expected non-nil distribution")
	}
	if len(s.Metrics) != 4 {
		t.Errorf("Expected 4 metrics, got %d", len(s.Metrics))
	}
	for _, m := range s.Metrics {
		if math.IsNaN(m.Value) {
			t.Errorf("Metric %s is NaN", m.Name)
		}
	}
}

func TestCalculator_NoEvidence(t *testing.T) {
	proteins := []model.Protein{{ID: "P1", ExistenceLevel: model.ExistenceProtein}}

	s := NewCalculator().Calculate(proteins)

	if got := metricByName(t, s, model.MetricEvidenceCoverage).Value; got != 0 {
		t.Errorf("Expected zero coverage, got %f", got)
	}
	if got := metricByName(t, s, model.MetricMentionsPerProtein).Value; got != 0 {
		t.Errorf("Expected zero mean, got %f", got)
	}
}
