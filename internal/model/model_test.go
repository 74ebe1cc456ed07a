package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseReviewYear(t *testing.T) {
	tests := []struct {
		in        string
		wantValid bool
		wantYear  int
		wantErr   bool
	}{
		{in: "2018", wantValid: true, wantYear: 2018},
		{in: "2018.0", wantValid: true, wantYear: 2018},
		{in: " 2020 ", wantValid: true, wantYear: 2020},
		{in: "0", wantValid: true, wantYear: 0},
		{in: "", wantValid: false},
		{in: "NaN", wantValid: false},
		{in: "null", wantValid: false},
		{in: "2018.5", wantErr: true},
		{in: "recent", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseReviewYear(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseReviewYear(%q): expected error, got %+v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseReviewYear(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got.Valid != tt.wantValid || got.Year != tt.wantYear {
			t.Errorf("ParseReviewYear(%q) = %+v, expected valid=%v year=%d", tt.in, got, tt.wantValid, tt.wantYear)
		}
	}
}

func TestReviewYear_ZeroIsNotNeverReviewed(t *testing.T) {
	if ReviewedIn(0) == NeverReviewed {
		t.Error("Expected a review in year 0 to differ from never reviewed")
	}
	if NeverReviewed.Cutoff() != 0 {
		t.Errorf("Expected never-reviewed cutoff 0, got %d", NeverReviewed.Cutoff())
	}
}

func TestReviewYear_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A ReviewYear `json:"a"`
		B ReviewYear `json:"b"`
	}{A: ReviewedIn(2019), B: NeverReviewed})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != `{"a":2019,"b":null}` {
		t.Errorf("Unexpected encoding: %s", data)
	}

	var decoded struct {
		A ReviewYear `json:"a"`
		B ReviewYear `json:"b"`
		C ReviewYear `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":2019,"b":null,"c":"2015"}`), &decoded); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if decoded.A != ReviewedIn(2019) || decoded.B != NeverReviewed || decoded.C != ReviewedIn(2015) {
		t.Errorf("Unexpected decoding: %+v", decoded)
	}
}

func TestCell_UnmarshalScalars(t *testing.T) {
	var row RawMention
	input := `{"pmid": 12345, "year": "2021", "score": 3.5, "fraction_mentions": 0.25, "in_title": true, "full_text": null}`
	if err := json.Unmarshal([]byte(input), &row); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if row.PublicationID != "12345" {
		t.Errorf("Expected pmid 12345, got %q", row.PublicationID)
	}
	if row.Score != "3.5" {
		t.Errorf("Expected score 3.5, got %q", row.Score)
	}
	if row.InTitle != "true" {
		t.Errorf("Expected in_title true, got %q", row.InTitle)
	}
	if row.FullText != "" {
		t.Errorf("Expected empty full_text, got %q", row.FullText)
	}

	var bad RawMention
	if err := json.Unmarshal([]byte(`{"year": [2021]}`), &bad); err == nil {
		t.Error("Expected error for non-scalar cell")
	}
}

func TestRawMention_Coerce(t *testing.T) {
	raw := RawMention{
		PublicationID:   " 111 ",
		Year:            "2021.0",
		Score:           "",
		MentionFraction: "0.4",
		TotalGenes:      "3",
		InTitle:         "True",
		FullText:        "0",
	}

	m, err := raw.Coerce()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.PublicationID != "111" || m.Year != 2021 || m.MentionFraction != 0.4 || m.TotalGenes != 3 {
		t.Errorf("Unexpected mention: %+v", m)
	}
	if !m.InTitle || m.FullText {
		t.Errorf("Unexpected flags: in_title=%v full_text=%v", m.InTitle, m.FullText)
	}
}

func TestRawMention_CoerceNamesField(t *testing.T) {
	tests := []struct {
		raw   RawMention
		field string
	}{
		{raw: RawMention{Year: "twenty", MentionFraction: "0.1"}, field: "year"},
		{raw: RawMention{Year: "2020", MentionFraction: "high"}, field: "fraction_mentions"},
		{raw: RawMention{Year: "2020", MentionFraction: ""}, field: "fraction_mentions"},
		{raw: RawMention{Year: "2020", MentionFraction: "0.2", Score: "x"}, field: "score"},
	}

	for _, tt := range tests {
		_, err := tt.raw.Coerce()
		var fe *FieldError
		if !errors.As(err, &fe) {
			t.Errorf("Expected FieldError for %+v, got %v", tt.raw, err)
			continue
		}
		if fe.Field != tt.field {
			t.Errorf("Expected field %s, got %s", tt.field, fe.Field)
		}
	}
}

func TestFilterSpec_CloneKeepsNilVersusEmpty(t *testing.T) {
	spec := FilterSpec{
		ExistenceLevels: []ExistenceLevel{},
		Years:           &IntRange{Min: 2019, Max: 2022},
	}

	clone := spec.Clone()
	if clone.ExistenceLevels == nil {
		t.Error("Expected empty existence set to stay non-nil")
	}
	if clone.SearchTerms != nil {
		t.Error("Expected nil search terms to stay nil")
	}

	spec.Years.Min = 1900
	if clone.Years.Min != 2019 {
		t.Errorf("Expected clone to be independent, got min %d", clone.Years.Min)
	}

	if clone.AllowsLevel(ExistencePredicted) {
		t.Error("Expected empty existence set to admit nothing")
	}
	if !(FilterSpec{}).AllowsLevel(ExistencePredicted) {
		t.Error("Expected nil existence set to admit every level")
	}
}
