package pipeline

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ppiankov/ignoromenot/internal/filter"
	"github.com/ppiankov/ignoromenot/internal/model"
	"github.com/ppiankov/ignoromenot/internal/source"
	"github.com/ppiankov/ignoromenot/internal/validate"
)

func raw(year, fraction string) model.RawMention {
	return model.RawMention{PublicationID: model.Cell(year + "-" + fraction), Year: model.Cell(year), MentionFraction: model.Cell(fraction)}
}

func sampleCorpus() *source.Corpus {
	return &source.Corpus{
		Proteins: []model.Protein{
			{ID: "P1", ExistenceLevel: model.ExistencePredicted, LastReviewed: model.ReviewedIn(2018), Description: "serine Kinase"},
			{ID: "P2", ExistenceLevel: model.ExistenceProtein, GeneName: "ND1"},
			{ID: "P3", ExistenceLevel: model.ExistenceUncertain, LastReviewed: model.ReviewedIn(2015)},
			{ID: "P4", ExistenceLevel: model.ExistenceHomology, LastReviewed: model.ReviewedIn(2019)},
		},
		Index: model.MentionIndex{
			"P1":     {raw("2017", "0.9"), raw("2020", "0.05"), raw("2021", "0.4")},
			"P2":     {raw("2000", "0.5"), raw("2010", "0.2")},
			"P4":     {raw("2020", "0.3"), raw("twenty", "0.3")},
			"ORPHAN": {raw("2022", "1")},
		},
		Info: model.SourceInfo{Orphans: 1},
	}
}

func newTestPipeline(workers int) *Pipeline {
	cfg := model.DefaultConfig()
	cfg.Concurrency.Workers = workers
	return NewPipeline(cfg, nil)
}

func sampleSpecs() []model.FilterSpec {
	return []model.FilterSpec{
		{},
		{MentionFraction: &model.FloatRange{Min: 0.1, Max: 1.0}, Years: &model.IntRange{Min: 2019, Max: 2022}},
		{ExistenceLevels: []model.ExistenceLevel{model.ExistenceProtein}},
		{ExistenceLevels: []model.ExistenceLevel{}},
		{LastReviewed: &model.IntRange{Min: 2015, Max: 2018}},
		{SearchTerms: []string{"kinase", "ND"}},
		{SearchTerms: []string{"nothing-matches"}},
		{Years: &model.IntRange{Min: 1990, Max: 2005}},
	}
}

// checkConsistency verifies the count and orphan invariants of a snapshot
func checkConsistency(t *testing.T, snap *model.Snapshot) {
	t.Helper()

	if len(snap.Mentions) != len(snap.Proteins) {
		t.Errorf("Expected one mention entry per protein, got %d entries for %d proteins", len(snap.Mentions), len(snap.Proteins))
	}

	total, withEvidence := 0, 0
	for _, p := range snap.Proteins {
		table, ok := snap.Mentions[p.ID]
		if !ok {
			t.Errorf("Protein %s has no mention entry", p.ID)
			continue
		}
		if p.MentionCount != len(table) {
			t.Errorf("Protein %s: count %d, table has %d", p.ID, p.MentionCount, len(table))
		}
		total += p.MentionCount
		if p.MentionCount > 0 {
			withEvidence++
		}
	}

	if snap.Summary.TotalMentions != total {
		t.Errorf("Expected total mentions %d, got %d", total, snap.Summary.TotalMentions)
	}
	if snap.Summary.ProteinsWithEvidence != withEvidence {
		t.Errorf("Expected %d proteins with evidence, got %d", withEvidence, snap.Summary.ProteinsWithEvidence)
	}
	if _, ok := snap.Mentions["ORPHAN"]; ok {
		t.Error("Orphan index key leaked into the snapshot")
	}
}

func TestRun_EndToEndScenario(t *testing.T) {
	corpus := sampleCorpus()
	spec := model.FilterSpec{
		MentionFraction: &model.FloatRange{Min: 0.1, Max: 1.0},
		Years:           &model.IntRange{Min: 2019, Max: 2022},
	}

	snap, err := newTestPipeline(1).Run(context.Background(), corpus, spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	p1, ok := snap.Protein("P1")
	if !ok {
		t.Fatal("Expected P1 to survive")
	}
	if p1.MentionCount != 1 {
		t.Errorf("Expected P1 count 1, got %d", p1.MentionCount)
	}
	if got := snap.Mentions["P1"]; len(got) != 1 || got[0].Year != 2021 {
		t.Errorf("Expected only the 2021 mention, got %+v", got)
	}

	// never-reviewed P2 keeps its full table before the year range removes it
	if p2, _ := snap.Protein("P2"); p2.MentionCount != 0 {
		t.Errorf("Expected P2 count 0, got %d", p2.MentionCount)
	}

	// P3 has no index entry but stays in the table
	if got, ok := snap.Mentions["P3"]; !ok || got == nil || len(got) != 0 {
		t.Errorf("Expected an empty non-nil entry for P3, got %v (present=%v)", got, ok)
	}

	if snap.ID == "" || snap.CreatedAt.IsZero() {
		t.Error("Expected snapshot identity to be set")
	}
	checkConsistency(t, snap)
}

func TestRun_EmptyResultScenario(t *testing.T) {
	corpus := &source.Corpus{
		Proteins: []model.Protein{{ID: "P1", ExistenceLevel: model.ExistencePredicted, LastReviewed: model.ReviewedIn(2018)}},
		Index:    model.MentionIndex{"P1": {raw("2021", "0.4")}},
	}
	spec := model.FilterSpec{ExistenceLevels: []model.ExistenceLevel{model.ExistenceProtein}}

	snap, err := newTestPipeline(1).Run(context.Background(), corpus, spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(snap.Proteins) != 0 || len(snap.Mentions) != 0 {
		t.Errorf("Expected empty view, got %d proteins and %d entries", len(snap.Proteins), len(snap.Mentions))
	}
	if snap.Summary.TotalMentions != 0 || snap.Summary.ProteinsWithEvidence != 0 {
		t.Errorf("Expected zero summary, got %+v", snap.Summary)
	}
}

func TestRun_SelectsUnrecognizedLevelPresentInCorpus(t *testing.T) {
	corpus := &source.Corpus{
		Proteins: []model.Protein{
			{ID: "P1", ExistenceLevel: "Unreviewed entry"},
			{ID: "P2", ExistenceLevel: model.ExistenceProtein},
		},
		Index: model.MentionIndex{"P1": {raw("2021", "0.4")}},
	}

	bounds := filter.ComputeBounds(corpus.Proteins, corpus.Index)
	if bounds.ExistenceLevels["Unreviewed entry"] != 1 {
		t.Fatalf("Expected bounds to report the unrecognized level, got %v", bounds.ExistenceLevels)
	}

	spec := model.FilterSpec{ExistenceLevels: []model.ExistenceLevel{"Unreviewed entry"}}
	snap, err := newTestPipeline(1).Run(context.Background(), corpus, spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(snap.Proteins) != 1 || snap.Proteins[0].ID != "P1" {
		t.Fatalf("Expected only P1, got %+v", snap.Proteins)
	}
	if snap.Proteins[0].MentionCount != 1 {
		t.Errorf("Expected 1 mention, got %d", snap.Proteins[0].MentionCount)
	}

	// A label absent from the corpus is still rejected
	spec = model.FilterSpec{ExistenceLevels: []model.ExistenceLevel{"Unreviewed entries"}}
	_, err = newTestPipeline(1).Run(context.Background(), corpus, spec)
	var specErr *validate.SpecError
	if !errors.As(err, &specErr) {
		t.Errorf("Expected SpecError for absent label, got %v", err)
	}
}

func TestRun_ConsistencyForAllSpecs(t *testing.T) {
	for _, workers := range []int{1, 4} {
		p := newTestPipeline(workers)
		for i, spec := range sampleSpecs() {
			snap, err := p.Run(context.Background(), sampleCorpus(), spec)
			if err != nil {
				t.Fatalf("workers=%d spec %d: Run failed: %v", workers, i, err)
			}
			checkConsistency(t, snap)
		}
	}
}

func TestRun_MalformedTableIsolated(t *testing.T) {
	snap, err := newTestPipeline(1).Run(context.Background(), sampleCorpus(), model.FilterSpec{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(snap.Warnings) != 1 || snap.Warnings[0].ProteinID != "P4" {
		t.Fatalf("Expected one warning for P4, got %+v", snap.Warnings)
	}
	if p4, _ := snap.Protein("P4"); p4.MentionCount != 0 {
		t.Errorf("Expected malformed P4 to contribute 0 mentions, got %d", p4.MentionCount)
	}
	if p1, _ := snap.Protein("P1"); p1.MentionCount != 2 {
		t.Errorf("Expected P1 unaffected with 2 post-review mentions, got %d", p1.MentionCount)
	}
	if len(snap.Proteins) != 4 {
		t.Errorf("Expected all 4 proteins to stay in view, got %d", len(snap.Proteins))
	}
}

func TestRun_PoolMatchesSequential(t *testing.T) {
	ignore := cmpopts.IgnoreFields(model.Snapshot{}, "ID", "CreatedAt")

	for i, spec := range sampleSpecs() {
		seq, err := newTestPipeline(1).Run(context.Background(), sampleCorpus(), spec)
		if err != nil {
			t.Fatalf("spec %d: sequential Run failed: %v", i, err)
		}
		par, err := newTestPipeline(8).Run(context.Background(), sampleCorpus(), spec)
		if err != nil {
			t.Fatalf("spec %d: pooled Run failed: %v", i, err)
		}
		if diff := cmp.Diff(seq, par, ignore); diff != "" {
			t.Errorf("spec %d: pooled pass differs (-sequential +pooled):\n%s", i, diff)
		}
	}
}

// Filtering every mention table first and restricting to the protein survivors
// afterwards must give the same result as the pipeline's order.
func TestRun_OrderIndependence(t *testing.T) {
	corpus := sampleCorpus()

	for i, spec := range sampleSpecs() {
		snap, err := newTestPipeline(1).Run(context.Background(), corpus, spec)
		if err != nil {
			t.Fatalf("spec %d: Run failed: %v", i, err)
		}

		mentionFirst := make(map[string][]model.Mention)
		for _, p := range corpus.Proteins {
			table, err := filter.Table(p, corpus.Index[p.ID], spec)
			if err != nil {
				table = []model.Mention{}
			}
			mentionFirst[p.ID] = table
		}

		survivors := filter.Select(corpus.Proteins, filter.Proteins(corpus.Proteins, spec, nil))
		restricted := make(map[string][]model.Mention, len(survivors))
		for _, p := range survivors {
			restricted[p.ID] = mentionFirst[p.ID]
		}

		if diff := cmp.Diff(restricted, snap.Mentions, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("spec %d: order matters (-mention-first +pipeline):\n%s", i, diff)
		}
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	spec := model.FilterSpec{Years: &model.IntRange{Min: 2022, Max: 2019}}

	_, err := newTestPipeline(1).Run(context.Background(), sampleCorpus(), spec)

	var specErr *validate.SpecError
	if !errors.As(err, &specErr) {
		t.Fatalf("Expected SpecError, got %v", err)
	}
}

func TestRun_DoesNotMutateInputs(t *testing.T) {
	corpus := sampleCorpus()
	levels := []model.ExistenceLevel{model.ExistencePredicted}
	spec := model.FilterSpec{ExistenceLevels: levels}

	snap, err := newTestPipeline(1).Run(context.Background(), corpus, spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	levels[0] = model.ExistenceUncertain

	if snap.Spec.ExistenceLevels[0] != model.ExistencePredicted {
		t.Error("Expected snapshot spec to be isolated from the caller's slice")
	}
	for _, p := range corpus.Proteins {
		if p.MentionCount != 0 {
			t.Errorf("Corpus protein %s was mutated (count %d)", p.ID, p.MentionCount)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestPipeline(4).Run(ctx, sampleCorpus(), model.FilterSpec{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRun_NilCorpus(t *testing.T) {
	if _, err := newTestPipeline(1).Run(context.Background(), nil, model.FilterSpec{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("Expected ErrNoSource, got %v", err)
	}
}

func TestAggregate(t *testing.T) {
	survivors := []model.Protein{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	tables := []tableResult{
		{mentions: []model.Mention{{Year: 2020}, {Year: 2021}}},
		{err: errors.New("bad year")},
		{},
	}

	mentions, warnings := aggregate(survivors, tables)

	counts := []int{survivors[0].MentionCount, survivors[1].MentionCount, survivors[2].MentionCount}
	if diff := cmp.Diff([]int{2, 0, 0}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
	keys := make([]string, 0, len(mentions))
	for k := range mentions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if diff := cmp.Diff([]string{"A", "B", "C"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if len(warnings) != 1 || warnings[0].ProteinID != "B" {
		t.Errorf("Expected one warning for B, got %+v", warnings)
	}
}
