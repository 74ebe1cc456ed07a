package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/source"
)

const sessionProteins = "uniprot_id\tprotein_existence\tlast_reviewed_pubyear\n" +
	"P1\tPredicted\t2018\n" +
	"P2\tEvidence at protein level\t\n"

const sessionMentions = `{
  "P1": [{"pmid": 1, "year": 2017, "fraction_mentions": 0.9},
         {"pmid": 2, "year": 2020, "fraction_mentions": 0.05},
         {"pmid": 3, "year": 2021, "fraction_mentions": 0.4}],
  "P2": [{"pmid": 4, "year": 2010, "fraction_mentions": 0.5}]
}`

func writeArtifacts(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	proteins := filepath.Join(dir, "proteins.tsv")
	mentions := filepath.Join(dir, "mentions.json")
	if err := os.WriteFile(proteins, []byte(sessionProteins), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mentions, []byte(sessionMentions), 0644); err != nil {
		t.Fatal(err)
	}
	return proteins, mentions
}

func newTestSession() *Session {
	cfg := model.DefaultConfig()
	return NewSession(NewPipeline(cfg, nil), source.NewLoader(cfg, nil, nil), nil)
}

func TestSession_LoadPublishesUnfilteredView(t *testing.T) {
	proteins, mentions := writeArtifacts(t)
	s := newTestSession()

	snap, err := s.Load(context.Background(), proteins, mentions)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(snap.Proteins) != 2 {
		t.Errorf("Expected 2 proteins, got %d", len(snap.Proteins))
	}
	// P1: 2020 and 2021 after its 2018 review; P2 never reviewed keeps 2010
	if snap.Summary.TotalMentions != 3 {
		t.Errorf("Expected 3 unfiltered mentions, got %d", snap.Summary.TotalMentions)
	}
	if s.Current() != snap {
		t.Error("Expected Load to publish its snapshot")
	}

	bounds, err := s.Bounds()
	if err != nil {
		t.Fatalf("Bounds failed: %v", err)
	}
	if bounds.NeverReviewed != 1 {
		t.Errorf("Expected 1 never-reviewed protein, got %d", bounds.NeverReviewed)
	}
}

func TestSession_ApplyAndFallback(t *testing.T) {
	proteins, mentions := writeArtifacts(t)
	s := newTestSession()
	if _, err := s.Load(context.Background(), proteins, mentions); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	good := model.FilterSpec{
		MentionFraction: &model.FloatRange{Min: 0.1, Max: 1.0},
		Years:           &model.IntRange{Min: 2019, Max: 2022},
	}
	snap, err := s.Apply(context.Background(), good)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if snap.Summary.TotalMentions != 1 || snap.Fallback {
		t.Fatalf("Expected 1 mention in a fresh snapshot, got %d (fallback=%v)", snap.Summary.TotalMentions, snap.Fallback)
	}

	bad := model.FilterSpec{MentionFraction: &model.FloatRange{Min: 0.5, Max: 1.5}}
	fb, err := s.Apply(context.Background(), bad)
	if err == nil {
		t.Fatal("Expected error for invalid spec")
	}
	if fb == nil || !fb.Fallback {
		t.Fatal("Expected a fallback snapshot")
	}
	if fb.ID != snap.ID || fb.Summary.TotalMentions != 1 {
		t.Errorf("Expected the previous snapshot back, got %s with %d mentions", fb.ID, fb.Summary.TotalMentions)
	}
	if s.Current().Fallback {
		t.Error("Published snapshot must not be modified by a fallback")
	}
}

func TestSession_ApplyBeforeLoad(t *testing.T) {
	if _, err := newTestSession().Apply(context.Background(), model.FilterSpec{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("Expected ErrNoSource, got %v", err)
	}
}

func TestSession_LoadFailureKeepsSessionEmpty(t *testing.T) {
	s := newTestSession()
	_, err := s.Load(context.Background(), "/nonexistent/p.tsv", "/nonexistent/m.json")

	var loadErr *model.SourceLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected SourceLoadError, got %v", err)
	}
	if s.Current() != nil {
		t.Error("Expected no snapshot after a failed load")
	}
}

func TestSession_Reload(t *testing.T) {
	proteins, mentions := writeArtifacts(t)
	s := newTestSession()
	if _, err := s.Load(context.Background(), proteins, mentions); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	spec := model.FilterSpec{ExistenceLevels: []model.ExistenceLevel{model.ExistencePredicted}}
	if _, err := s.Apply(context.Background(), spec); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	updated := sessionProteins + "P3\tPredicted\t\n"
	if err := os.WriteFile(proteins, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	snap, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(snap.Proteins) != 2 {
		t.Errorf("Expected P1 and P3 under the re-applied spec, got %d proteins", len(snap.Proteins))
	}
	if _, ok := snap.Protein("P3"); !ok {
		t.Error("Expected the new protein after reload")
	}

	// a broken artifact keeps the previous corpus
	if err := os.WriteFile(proteins, []byte("uniprot_id\nP1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reload(context.Background()); err == nil {
		t.Fatal("Expected reload of a broken table to fail")
	}
	if s.Current().ID != snap.ID {
		t.Error("Expected the previous snapshot to survive a failed reload")
	}
}
