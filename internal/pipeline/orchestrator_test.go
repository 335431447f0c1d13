package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/kmorell/sitedigest/internal/extract"
)

type fakeTexts struct {
	text string
	err  error
}

func (f *fakeTexts) ExtractText(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type fakeCompleter struct {
	responses map[string]string // keyed by prompt substring
	fallback  string
	prompts   []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	for key, resp := range f.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return f.fallback, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const structuredReport = `Weather:
Conditions: Partly Cloudy
High: 75°F
Low: 55°F

Workforce:
Electricians: 5 workers
Plumbers: 3 workers

Work Areas:
Level 2: framing

Notes:
Concrete pour on level 4 delayed to tomorrow due to pump availability.`

func TestOrchestrator_StructuredReportNoFallback(t *testing.T) {
	llm := &fakeCompleter{fallback: `{"conflicts": []}`}
	o := NewOrchestrator(&fakeTexts{text: structuredReport}, llm, discardLogger())

	result, err := o.Run(context.Background(), Job{ID: "j1", Locator: "reports/j1/r.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.FallbackSections) != 0 {
		t.Errorf("expected no fallback sections, got %v", result.FallbackSections)
	}
	if result.OverallConfidence != extract.ConfidenceHigh {
		t.Errorf("expected overall confidence %q, got %q", extract.ConfidenceHigh, result.OverallConfidence)
	}
	if result.Data.Weather == nil || result.Data.Workforce == nil || len(result.Data.WorkAreas) != 1 {
		t.Errorf("unexpected data: %+v", result.Data)
	}
	// Only the semantic conflict check should have reached the model.
	if len(llm.prompts) != 1 {
		t.Errorf("expected 1 model call (conflict check), got %d", len(llm.prompts))
	}

	for _, stage := range []string{StageFetchText, StagePatternExtract, StageFallback, StageConflictDetect} {
		if _, ok := result.StageTimings[stage]; !ok {
			t.Errorf("missing stage timing %q", stage)
		}
	}
}

func TestOrchestrator_ProseWeatherTriggersOneFallback(t *testing.T) {
	text := `Weather:
It was a gloomy morning but cleared up after lunch.

Workforce:
Electricians: 5 workers

Work Areas:
Level 2: framing

Notes:
Concrete pour on level 4 delayed to tomorrow due to pump availability.`

	llm := &fakeCompleter{
		responses: map[string]string{
			`Extract the "weather" section`: `{"data": {"conditions": "gloomy then clear"}}`,
		},
		fallback: `{"conflicts": []}`,
	}
	o := NewOrchestrator(&fakeTexts{text: text}, llm, discardLogger())

	result, err := o.Run(context.Background(), Job{ID: "j2", Locator: "reports/j2/r.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.FallbackSections) != 1 || result.FallbackSections[0] != extract.SectionWeather {
		t.Fatalf("expected fallback sections [weather], got %v", result.FallbackSections)
	}
	if result.Data.Weather == nil || result.Data.Weather.Conditions != "gloomy then clear" {
		t.Errorf("expected fallback weather data, got %+v", result.Data.Weather)
	}
	// One fallback call plus one conflict check.
	if len(llm.prompts) != 2 {
		t.Errorf("expected 2 model calls, got %d", len(llm.prompts))
	}
	// weather MEDIUM after fallback; workforce, areas, notes HIGH.
	if result.OverallConfidence != extract.ConfidenceHigh {
		t.Errorf("expected overall confidence %q, got %q", extract.ConfidenceHigh, result.OverallConfidence)
	}
}

func TestOrchestrator_TextErrorAborts(t *testing.T) {
	llm := &fakeCompleter{fallback: `{"conflicts": []}`}
	o := NewOrchestrator(&fakeTexts{err: errors.New("blob missing")}, llm, discardLogger())

	if _, err := o.Run(context.Background(), Job{ID: "j3", Locator: "reports/j3/r.pdf"}); err == nil {
		t.Fatal("expected error when text resolution fails")
	}
	if len(llm.prompts) != 0 {
		t.Errorf("no model calls expected after abort, got %d", len(llm.prompts))
	}
}

func TestOverallConfidence(t *testing.T) {
	h, m, l := extract.ConfidenceHigh, extract.ConfidenceMedium, extract.ConfidenceLow
	tests := []struct {
		name  string
		confs []extract.Confidence
		want  extract.Confidence
	}{
		{"three high", []extract.Confidence{h, h, h, m}, h},
		{"one low three high", []extract.Confidence{l, h, h, h}, h},
		{"two low", []extract.Confidence{l, l, m, h}, l},
		{"mixed medium", []extract.Confidence{m, m, h, l}, m},
		{"two high", []extract.Confidence{h, h, m, m}, m},
		{"all low", []extract.Confidence{l, l, l, l}, l},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overallConfidence(tt.confs...); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
