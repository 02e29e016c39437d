package domain

import "testing"

func TestParseRowStatus(t *testing.T) {
	tests := []struct {
		in   string
		want RowStatus
		ok   bool
	}{
		{"valid", RowValid, true},
		{"CLEANED", RowCleaned, true},
		{" warning ", RowWarning, true},
		{"unknown", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRowStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRowStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidInsightKind(t *testing.T) {
	for _, kind := range []string{InsightPricing, InsightCompetitor, InsightMarketing, InsightAlert} {
		if !ValidInsightKind(kind) {
			t.Errorf("ValidInsightKind(%q) = false", kind)
		}
	}
	if ValidInsightKind("horoscope") || ValidInsightKind("") {
		t.Error("unknown kinds must not validate")
	}
}
