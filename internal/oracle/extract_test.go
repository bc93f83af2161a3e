// v1
// internal/oracle/extract_test.go
package oracle

import (
	"reflect"
	"testing"
)

func TestKeywordLines(t *testing.T) {
	text := "The occupancy is UNUSUAL for this hour.\n\nEverything else is fine.\nPossible energy waste from idle equipment.\nHigh CO2 readings.\nAnother anomaly here.\nYet another anomaly."

	got := DefaultAnomalyExtractor().Extract(text)
	want := []string{
		"The occupancy is UNUSUAL for this hour.",
		"Possible energy waste from idle equipment.",
		"High CO2 readings.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("extracted %v, want %v (limit 3, case-insensitive)", got, want)
	}
}

func TestMarkerOrPercent(t *testing.T) {
	text := "Summary of findings:\nACTION: Dim the lights (est. savings unknown)\nReducing setpoint saves 12% on HVAC.\nNothing else."

	got := DefaultRecommendationExtractor().Extract(text)
	want := []string{
		"ACTION: Dim the lights (est. savings unknown)",
		"Reducing setpoint saves 12% on HVAC.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("extracted %v, want %v", got, want)
	}
}

func TestMarkerOrPercentIgnoresBarePercentSign(t *testing.T) {
	got := MarkerOrPercent{Marker: "ACTION:", Limit: 5}.Extract("savings of some % amount")
	if len(got) != 0 {
		t.Fatalf("a %% with no digits should not match, got %v", got)
	}
}

func TestCampusPolicyLines(t *testing.T) {
	text := "CAMPUS POLICY: Close building b4 overnight (impact: 5 kW)\nThe campus could also shift classes.\nUnrelated remark."

	got := CampusPolicyLines{Limit: 7}.Extract(text)
	if len(got) != 2 {
		t.Fatalf("extracted %v, want the policy line and the campus mention", got)
	}
}

func TestExtractorsOnEmptyText(t *testing.T) {
	if got := DefaultAnomalyExtractor().Extract(""); len(got) != 0 {
		t.Fatalf("empty text extracted %v", got)
	}
	if got := DefaultRecommendationExtractor().Extract("\n\n"); len(got) != 0 {
		t.Fatalf("blank text extracted %v", got)
	}
}
