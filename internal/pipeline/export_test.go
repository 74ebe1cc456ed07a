package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/ignoromenot/internal/model"
)

func sampleMentions() []model.Mention {
	return []model.Mention{
		{PublicationID: "2", Year: 2020, MentionFraction: 0.2, Title: "tab\tin title"},
		{PublicationID: "1", Year: 2021, MentionFraction: 0.1},
		{PublicationID: "3", Year: 2020, MentionFraction: 0.9, InTitle: true},
	}
}

func pmids(ms []model.Mention) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.PublicationID
	}
	return out
}

func TestSortMentions(t *testing.T) {
	tests := []struct {
		order string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{SortYearDesc, []string{"1", "2", "3"}},
		{SortYearAsc, []string{"2", "3", "1"}},
		{SortFractionDesc, []string{"3", "2", "1"}},
	}

	for _, tt := range tests {
		got, err := SortMentions(sampleMentions(), tt.order)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.order, err)
		}
		if diff := cmp.Diff(tt.want, pmids(got)); diff != "" {
			t.Errorf("%q order mismatch (-want +got):\n%s", tt.order, diff)
		}
	}

	if _, err := SortMentions(sampleMentions(), "random"); err == nil {
		t.Error("Expected error for unknown order")
	}
}

func TestSortMentions_DoesNotModifyInput(t *testing.T) {
	in := sampleMentions()
	_, _ = SortMentions(in, SortYearAsc)
	if in[0].PublicationID != "2" {
		t.Error("Expected input order preserved")
	}
}

func TestWriteMentionsTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMentionsTSV(&buf, sampleMentions()); err != nil {
		t.Fatalf("WriteMentionsTSV failed: %v", err)
	}

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d", len(records))
	}
	if diff := cmp.Diff(mentionHeader, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if records[1][5] != "tab\tin title" {
		t.Errorf("Expected quoted title to survive, got %q", records[1][5])
	}
	if records[3][7] != "true" {
		t.Errorf("Expected in_title true, got %q", records[3][7])
	}
}

func TestWriteMentionsTSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMentionsTSV(&buf, nil); err != nil {
		t.Fatalf("WriteMentionsTSV failed: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 1 {
		t.Errorf("Expected header only, got %d lines", lines)
	}
}

func TestWriteProteinsCSV(t *testing.T) {
	proteins := []model.Protein{
		{ID: "P1", ExistenceLevel: model.ExistencePredicted, LastReviewed: model.ReviewedIn(2018), MentionCount: 2,
			Extra: map[string]string{"reviewed_publications": "4"}},
		{ID: "P2", ExistenceLevel: model.ExistenceProtein, Description: "a, b", Extra: map[string]string{"chromosome": "X"}},
	}

	var buf bytes.Buffer
	if err := WriteProteinsCSV(&buf, proteins); err != nil {
		t.Fatalf("WriteProteinsCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(records))
	}

	header := records[0]
	wantTail := []string{"derived_mention_count", "chromosome", "reviewed_publications"}
	if diff := cmp.Diff(wantTail, header[len(header)-3:]); diff != "" {
		t.Errorf("header tail mismatch (-want +got):\n%s", diff)
	}
	if records[1][2] != "2018" || records[2][2] != "" {
		t.Errorf("Expected watermark 2018 and blank, got %q and %q", records[1][2], records[2][2])
	}
	if records[1][7] != "2" {
		t.Errorf("Expected derived count 2, got %q", records[1][7])
	}
	if records[2][5] != "a, b" {
		t.Errorf("Expected comma in description to round-trip, got %q", records[2][5])
	}
}

func sampleSnapshot() *model.Snapshot {
	return &model.Snapshot{
		ID:        "snap-1",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Spec:      model.FilterSpec{SearchTerms: []string{"kinase"}},
		Proteins: []model.Protein{
			{ID: "P1", GeneName: "ABC1", ExistenceLevel: model.ExistencePredicted, LastReviewed: model.ReviewedIn(2018), MentionCount: 1},
			{ID: "P2", ExistenceLevel: "odd label", MentionCount: 0},
		},
		Mentions: map[string][]model.Mention{"P1": {{PublicationID: "9", Year: 2021}}, "P2": {}},
		Summary: model.Summary{
			TotalMentions: 1, ProteinsWithEvidence: 1, ProteinsInView: 2,
			ExistenceDistribution: map[model.ExistenceLevel]int{model.ExistencePredicted: 1, "odd label": 1},
			Metrics:               []model.Metric{{Name: model.MetricTotalMentions, Value: 1, Data: map[string]interface{}{"formula": "sum(derived_mention_count)"}}},
		},
		Warnings: []model.RowWarning{{ProteinID: "P3", Message: "bad year"}},
	}
}

func TestRenderTable_PlainFallback(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(model.OutputConfig{}).RenderTable(&buf, sampleSnapshot())

	if !IsRenderFallback(err) {
		t.Fatalf("Expected RenderFallbackError for a non-terminal writer, got %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Protein", "P1", "ABC1", "never"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected plain output to contain %q:\n%s", want, out)
		}
	}
}

func TestRenderTable_MaxRows(t *testing.T) {
	var buf bytes.Buffer
	_ = NewRenderer(model.OutputConfig{MaxTableRows: 1}).RenderTable(&buf, sampleSnapshot())

	if strings.Contains(buf.String(), "P2") {
		t.Error("Expected rows beyond the limit to be hidden")
	}
	if !strings.Contains(buf.String(), "1 more rows") {
		t.Errorf("Expected hidden-row note, got:\n%s", buf.String())
	}
}

func TestStyledTable(t *testing.T) {
	out, err := NewRenderer(model.OutputConfig{}).styledTable(sampleSnapshot())
	if err != nil {
		t.Fatalf("styledTable failed: %v", err)
	}
	if !strings.Contains(out, "P1") || !strings.Contains(out, "odd label") {
		t.Errorf("Expected rows in styled table:\n%s", out)
	}
}

func TestRenderJSON(t *testing.T) {
	r := NewRenderer(model.OutputConfig{})

	var without bytes.Buffer
	if err := r.RenderJSON(&without, sampleSnapshot(), false); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(without.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := decoded["mentions"]; ok {
		t.Error("Expected mentions omitted by default")
	}

	var with bytes.Buffer
	if err := r.RenderJSON(&with, sampleSnapshot(), true); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}
	if !strings.Contains(with.String(), `"mentions"`) {
		t.Error("Expected mentions when requested")
	}
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(model.OutputConfig{IncludeFooter: true}).RenderMarkdown(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"# Unreviewed Publication Evidence", "Search: kinase", "sum(derived_mention_count)", "| P1 | ABC1 |", "`P3`: bad year", "---"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected markdown to contain %q:\n%s", want, out)
		}
	}
	// canonical levels come before unrecognized ones
	if strings.Index(out, "| Predicted |") > strings.Index(out, "| odd label |") {
		t.Error("Expected canonical levels listed first")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	snap := sampleSnapshot()
	snap.Fallback = true
	if err := NewRenderer(model.OutputConfig{}).RenderSummary(&buf, snap); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Publications meeting criteria: 1") {
		t.Errorf("Expected total line, got:\n%s", out)
	}
	if !strings.Contains(out, "previous snapshot") {
		t.Error("Expected fallback notice")
	}
}
