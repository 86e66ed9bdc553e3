package entity

import (
	"encoding/json"
	"testing"
)

func TestLayoutJSONRoundTrip(t *testing.T) {
	for _, layout := range []LayoutType{LayoutStandard, LayoutCatchAll} {
		data, err := json.Marshal(AccountSummaryRecord{Layout: layout})
		if err != nil {
			t.Fatalf("Marshal(%s) error = %v", layout, err)
		}
		var got AccountSummaryRecord
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if got.Layout != layout {
			t.Errorf("Layout = %s, want %s", got.Layout, layout)
		}
	}

	var l LayoutType
	if err := l.UnmarshalText([]byte("other")); err == nil {
		t.Error("UnmarshalText(other) error = nil")
	}
}

func TestSourceLayoutJSONRoundTrip(t *testing.T) {
	for _, layout := range []SourceLayout{SourceLayoutUnknown, SourceLayoutMonthly, SourceLayoutQuarterly, SourceLayoutSingleMonth} {
		data, err := json.Marshal(FileResult{SourceLayout: layout})
		if err != nil {
			t.Fatalf("Marshal(%s) error = %v", layout, err)
		}
		var got FileResult
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if got.SourceLayout != layout {
			t.Errorf("SourceLayout = %s, want %s", got.SourceLayout, layout)
		}
	}

	var s SourceLayout
	if err := s.UnmarshalText([]byte("weekly")); err == nil {
		t.Error("UnmarshalText(weekly) error = nil")
	}
}
