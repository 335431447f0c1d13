package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// notesShortLen is the trimmed length a notes body must exceed for high
// confidence. Anything shorter is likely a stub ("none", "n/a").
const notesShortLen = 40

// PatternExtractor maps raw report text to four independent section results
// using deterministic pattern matching. It performs no I/O; identical input
// yields identical output.
type PatternExtractor struct {
	matcher *boundaryMatcher
}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{matcher: newBoundaryMatcher(defaultSections)}
}

// Extract splits text into section bodies and parses each independently.
// A failure inside one section never aborts the others.
func (e *PatternExtractor) Extract(text string) PatternResult {
	return PatternResult{
		Weather:   extractSection(e.matcher, text, SectionWeather, parseWeather),
		Workforce: extractSection(e.matcher, text, SectionWorkforce, parseWorkforce),
		WorkAreas: extractSection(e.matcher, text, SectionWorkAreas, parseWorkAreas),
		Notes:     extractSection(e.matcher, text, SectionNotes, parseNotes),
	}
}

// extractSection locates one section body and runs its parser with panic
// containment. A panicking parser degrades that section to low confidence
// with the raw text preserved for the fallback stage. A missing header is
// absence, not ambiguity, and never triggers fallback.
func extractSection[T any](m *boundaryMatcher, text, name string, parse func(string) SectionResult[T]) (out SectionResult[T]) {
	body, found := m.sectionBody(text, name)
	if !found {
		return SectionResult[T]{Confidence: ConfidenceLow}
	}
	defer func() {
		if r := recover(); r != nil {
			out = SectionResult[T]{Confidence: ConfidenceLow, NeedsFallback: true, RawText: body}
		}
	}()
	out = parse(body)
	out.RawText = body
	return out
}

var (
	tempHighRe  = regexp.MustCompile(`(?i)\bhigh\s*:\s*(-?\d+)`)
	tempLowRe   = regexp.MustCompile(`(?i)\blow\s*:\s*(-?\d+)`)
	tempRangeRe = regexp.MustCompile(`(-?\d+)\s*°?\s*[/-]\s*(-?\d+)\s*°`)
	condRe      = regexp.MustCompile(`(?i)\b(?:sky|conditions|weather)\s*:\s*([^\n.,;:]+)`)
)

func parseWeather(body string) SectionResult[WeatherData] {
	var data WeatherData

	if m := tempHighRe.FindStringSubmatch(body); m != nil {
		data.TemperatureHigh = atoiPtr(m[1])
	}
	if m := tempLowRe.FindStringSubmatch(body); m != nil {
		data.TemperatureLow = atoiPtr(m[1])
	}
	if data.TemperatureHigh == nil && data.TemperatureLow == nil {
		if m := tempRangeRe.FindStringSubmatch(body); m != nil {
			a, b := mustAtoi(m[1]), mustAtoi(m[2])
			hi, lo := max(a, b), min(a, b)
			data.TemperatureHigh = &hi
			data.TemperatureLow = &lo
		}
	}

	if m := condRe.FindStringSubmatch(body); m != nil {
		data.Conditions = strings.TrimSpace(m[1])
	}

	tempFound := data.TemperatureHigh != nil || data.TemperatureLow != nil
	condFound := data.Conditions != ""
	switch {
	case tempFound && condFound:
		return SectionResult[WeatherData]{Data: &data, Confidence: ConfidenceHigh}
	case tempFound || condFound:
		return SectionResult[WeatherData]{Data: &data, Confidence: ConfidenceMedium}
	default:
		return SectionResult[WeatherData]{Confidence: ConfidenceLow, NeedsFallback: true}
	}
}

var (
	crewLineRe  = regexp.MustCompile(`(?im)^[ \t]*([A-Za-z][A-Za-z0-9 /&'-]*?)\s*:\s*(\d+)\s+workers?\b`)
	crewTableRe = regexp.MustCompile(`(?m)^[ \t]*([^|\n]+?)\s*\|\s*([^|\n]+?)\s*\|\s*(\d+)\s*$`)
	totalRe     = regexp.MustCompile(`(?i)\btotal(?:\s+workers?|\s+headcount)?\s*:\s*(\d+)`)
)

func parseWorkforce(body string) SectionResult[WorkforceData] {
	var data WorkforceData

	for _, m := range crewLineRe.FindAllStringSubmatch(body, -1) {
		name := strings.TrimSpace(m[1])
		if strings.EqualFold(name, "total") {
			continue
		}
		data.Crews = append(data.Crews, CrewEntry{Trade: name, Count: mustAtoi(m[2])})
	}
	for _, m := range crewTableRe.FindAllStringSubmatch(body, -1) {
		data.Crews = append(data.Crews, CrewEntry{
			Subcontractor: strings.TrimSpace(m[1]),
			Trade:         strings.TrimSpace(m[2]),
			Count:         mustAtoi(m[3]),
		})
	}

	if m := totalRe.FindStringSubmatch(body); m != nil {
		data.TotalWorkers = mustAtoi(m[1])
		data.TotalExplicit = true
	} else {
		for _, c := range data.Crews {
			data.TotalWorkers += c.Count
		}
	}

	switch {
	case len(data.Crews) > 0:
		return SectionResult[WorkforceData]{Data: &data, Confidence: ConfidenceHigh}
	case data.TotalExplicit:
		return SectionResult[WorkforceData]{Data: &data, Confidence: ConfidenceMedium}
	default:
		return SectionResult[WorkforceData]{Confidence: ConfidenceLow, NeedsFallback: true}
	}
}

var (
	areaLineRe  = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z][^:|\n]*?)\s*:\s*([A-Za-z][A-Za-z0-9 %-]*?)\s*$`)
	areaTableRe = regexp.MustCompile(`(?m)^[ \t]*([^|\n]+?)\s*\|\s*([^|\n]+?)\s*\|\s*([^|\n]*?)\s*$`)
)

func parseWorkAreas(body string) SectionResult[[]WorkArea] {
	var areas []WorkArea
	seen := make(map[string]bool)

	add := func(a WorkArea) {
		key := strings.ToLower(strings.TrimSpace(a.Name))
		if key == "" || key == "name" || key == "area" || seen[key] {
			return
		}
		seen[key] = true
		areas = append(areas, a)
	}

	for _, m := range areaLineRe.FindAllStringSubmatch(body, -1) {
		add(WorkArea{Name: strings.TrimSpace(m[1]), Status: strings.TrimSpace(m[2])})
	}
	for _, m := range areaTableRe.FindAllStringSubmatch(body, -1) {
		name := strings.TrimSpace(m[1])
		if strings.Trim(name, "- ") == "" {
			continue // table separator row
		}
		add(WorkArea{Name: name, Status: strings.TrimSpace(m[2]), Notes: strings.TrimSpace(m[3])})
	}

	if len(areas) == 0 {
		return SectionResult[[]WorkArea]{Confidence: ConfidenceLow, NeedsFallback: true}
	}
	return SectionResult[[]WorkArea]{Data: &areas, Confidence: ConfidenceHigh}
}

// parseNotes keeps the section body as free text. Free text carries no
// structural ambiguity for the fallback to resolve, so NeedsFallback is
// always false.
func parseNotes(body string) SectionResult[string] {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return SectionResult[string]{Confidence: ConfidenceLow}
	}
	conf := ConfidenceMedium
	if len(trimmed) > notesShortLen {
		conf = ConfidenceHigh
	}
	return SectionResult[string]{Data: &trimmed, Confidence: conf}
}

func atoiPtr(s string) *int {
	n := mustAtoi(s)
	return &n
}

// mustAtoi converts a digits-only regex capture. Malformed captures fall
// back to zero rather than failing the section.
func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
