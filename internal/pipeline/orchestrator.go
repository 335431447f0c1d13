package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kmorell/sitedigest/internal/extract"
)

// Pipeline stage names, used as timing keys.
const (
	StageFetchText      = "fetch_text"
	StagePatternExtract = "pattern_extract"
	StageFallback       = "fallback"
	StageConflictDetect = "conflict_detect"
)

// TextExtractor resolves a document locator to plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, locator string) (string, error)
}

// ExtractionResult is the aggregate outcome of one job. It exists only
// between Run and persistence; stage timings and warnings are not stored
// beyond what the caller chooses to log.
type ExtractionResult struct {
	Data              extract.ExtractedData
	Warnings          []extract.ValidationWarning
	FallbackSections  []string
	OverallConfidence extract.Confidence
	StageTimings      map[string]time.Duration
}

// Orchestrator sequences the extraction pipeline over one job: resolve
// text, pattern pass, fallback for flagged sections, conflict detection,
// overall confidence.
type Orchestrator struct {
	texts     TextExtractor
	patterns  *extract.PatternExtractor
	fallback  *extract.FallbackExtractor
	conflicts *extract.ConflictDetector
	log       *slog.Logger
}

func NewOrchestrator(texts TextExtractor, llm extract.Completer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		texts:     texts,
		patterns:  extract.NewPatternExtractor(),
		fallback:  extract.NewFallbackExtractor(llm, log),
		conflicts: extract.NewConflictDetector(llm, log),
		log:       log,
	}
}

// Run processes one job to an ExtractionResult. An error from text
// resolution aborts the job; fallback and conflict failures degrade
// locally and never propagate. Nothing is persisted here.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*ExtractionResult, error) {
	timings := make(map[string]time.Duration, 4)

	start := time.Now()
	text, err := o.texts.ExtractText(ctx, job.Locator)
	timings[StageFetchText] = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("resolve document text: %w", err)
	}

	start = time.Now()
	pr := o.patterns.Extract(text)
	timings[StagePatternExtract] = time.Since(start)

	// Flagged sections are resolved one at a time, in a fixed order. Notes
	// never uses fallback.
	var used []string
	start = time.Now()
	weather := resolveSection(ctx, o.fallback, extract.SectionWeather, pr.Weather, &used)
	workforce := resolveSection(ctx, o.fallback, extract.SectionWorkforce, pr.Workforce, &used)
	workAreas := resolveSection(ctx, o.fallback, extract.SectionWorkAreas, pr.WorkAreas, &used)
	notes := pr.Notes
	timings[StageFallback] = time.Since(start)

	data := assemble(weather, workforce, workAreas, notes)

	start = time.Now()
	warnings := o.conflicts.Detect(ctx, data)
	timings[StageConflictDetect] = time.Since(start)

	overall := overallConfidence(
		weather.Confidence,
		workforce.Confidence,
		workAreas.Confidence,
		notes.Confidence,
	)

	return &ExtractionResult{
		Data:              data,
		Warnings:          warnings,
		FallbackSections:  used,
		OverallConfidence: overall,
		StageTimings:      timings,
	}, nil
}

// resolveSection hands one flagged section to the fallback extractor,
// recording its name; unflagged sections pass through untouched.
func resolveSection[T any](ctx context.Context, f *extract.FallbackExtractor, name string, r extract.SectionResult[T], used *[]string) extract.SectionResult[T] {
	if !r.NeedsFallback || r.RawText == "" {
		return r
	}
	*used = append(*used, name)
	return extract.ExtractSection[T](ctx, f, name, r.RawText)
}

func assemble(
	weather extract.SectionResult[extract.WeatherData],
	workforce extract.SectionResult[extract.WorkforceData],
	workAreas extract.SectionResult[[]extract.WorkArea],
	notes extract.SectionResult[string],
) extract.ExtractedData {
	var data extract.ExtractedData
	data.Weather = weather.Data
	data.Workforce = workforce.Data
	if workAreas.Data != nil {
		data.WorkAreas = *workAreas.Data
	}
	if notes.Data != nil {
		data.Notes = *notes.Data
	}
	return data
}

// overallConfidence aggregates the four post-fallback section confidences:
// two or more LOW is LOW, else three or more HIGH is HIGH, else MEDIUM.
func overallConfidence(confs ...extract.Confidence) extract.Confidence {
	var low, high int
	for _, c := range confs {
		switch c {
		case extract.ConfidenceLow:
			low++
		case extract.ConfidenceHigh:
			high++
		}
	}
	switch {
	case low >= 2:
		return extract.ConfidenceLow
	case high >= 3:
		return extract.ConfidenceHigh
	default:
		return extract.ConfidenceMedium
	}
}
