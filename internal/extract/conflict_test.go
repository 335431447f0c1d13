package extract

import (
	"context"
	"errors"
	"testing"
)

func TestConflictDetector_TotalMismatch(t *testing.T) {
	llm := &fakeCompleter{response: `{"conflicts": []}`}
	d := NewConflictDetector(llm, discardLogger())

	data := ExtractedData{
		Workforce: &WorkforceData{
			TotalWorkers:  10,
			TotalExplicit: true,
			Crews: []CrewEntry{
				{Trade: "Electrical", Count: 3},
				{Trade: "Plumbing", Count: 2},
			},
		},
	}

	warnings := d.Detect(context.Background(), data)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %+v", len(warnings), warnings)
	}
	w := warnings[0]
	if w.Type != WarningWorkforceTotalMismatch {
		t.Errorf("expected type %q, got %q", WarningWorkforceTotalMismatch, w.Type)
	}
	if w.Severity != SeverityWarning {
		t.Errorf("expected severity %q, got %q", SeverityWarning, w.Severity)
	}
	if len(w.Sections) != 1 || w.Sections[0] != SectionWorkforce {
		t.Errorf("expected sections [workforce], got %v", w.Sections)
	}
}

func TestConflictDetector_ConsistentTotal(t *testing.T) {
	llm := &fakeCompleter{response: `{"conflicts": []}`}
	d := NewConflictDetector(llm, discardLogger())

	data := ExtractedData{
		Workforce: &WorkforceData{
			TotalWorkers:  8,
			TotalExplicit: true,
			Crews: []CrewEntry{
				{Trade: "Electrical", Count: 5},
				{Trade: "Plumbing", Count: 3},
			},
		},
	}

	if warnings := d.Detect(context.Background(), data); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", warnings)
	}
}

func TestConflictDetector_SummedTotalNotCompared(t *testing.T) {
	// A total derived by summing crews can never mismatch them; only stated
	// totals are checked.
	llm := &fakeCompleter{response: `{"conflicts": []}`}
	d := NewConflictDetector(llm, discardLogger())

	data := ExtractedData{
		Workforce: &WorkforceData{
			TotalWorkers: 99, // inconsistent on purpose
			Crews:        []CrewEntry{{Trade: "Electrical", Count: 5}},
		},
	}

	if warnings := d.Detect(context.Background(), data); len(warnings) != 0 {
		t.Errorf("expected no warnings for implicit total, got %+v", warnings)
	}
}

func TestConflictDetector_SemanticPassSkippedWhenEmpty(t *testing.T) {
	llm := &fakeCompleter{response: `{"conflicts": []}`}
	d := NewConflictDetector(llm, discardLogger())

	warnings := d.Detect(context.Background(), ExtractedData{WorkAreas: []WorkArea{{Name: "Lobby"}}})
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", warnings)
	}
	if len(llm.prompts) != 0 {
		t.Errorf("semantic pass should be skipped with nothing to cross-check, got %d calls", len(llm.prompts))
	}
}

func TestConflictDetector_SemanticConflicts(t *testing.T) {
	llm := &fakeCompleter{response: `{"conflicts": [
		{"type": "weather_notes_conflict", "message": "clear skies vs rain delay", "sections": ["weather", "notes"], "severity": "error"},
		{"type": "odd", "message": "unknown severity", "sections": ["notes"], "severity": "critical"}
	]}`}
	d := NewConflictDetector(llm, discardLogger())

	data := ExtractedData{
		Weather: &WeatherData{Conditions: "clear"},
		Notes:   "work stopped due to heavy rain",
	}

	warnings := d.Detect(context.Background(), data)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warnings))
	}
	if warnings[0].Severity != SeverityError {
		t.Errorf("expected severity %q, got %q", SeverityError, warnings[0].Severity)
	}
	if warnings[1].Severity != SeverityWarning {
		t.Errorf("unknown severity should normalize to %q, got %q", SeverityWarning, warnings[1].Severity)
	}
}

func TestConflictDetector_SemanticFailureDegrades(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"transport error", "", errors.New("timeout")},
		{"malformed json", "not json", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeCompleter{response: tt.response, err: tt.err}
			d := NewConflictDetector(llm, discardLogger())

			data := ExtractedData{Notes: "some notes"}
			if warnings := d.Detect(context.Background(), data); len(warnings) != 0 {
				t.Errorf("semantic failure must degrade to no warnings, got %+v", warnings)
			}
		})
	}
}
