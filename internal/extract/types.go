package extract

// Section names as they appear in queue payloads, warnings, and prompts.
const (
	SectionWeather   = "weather"
	SectionWorkforce = "workforce"
	SectionWorkAreas = "workAreas"
	SectionNotes     = "notes"
)

// Confidence rates how trustworthy a section's structured extraction is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// SectionResult is the outcome of extracting one section.
//
// Data is nil when the section was absent or could not be parsed. A result
// is never both high-confidence and flagged for fallback: NeedsFallback
// implies ConfidenceLow.
type SectionResult[T any] struct {
	Data          *T
	Confidence    Confidence
	NeedsFallback bool

	// RawText is the section body as found in the source document. Preserved
	// so the fallback stage can re-extract from the original text.
	RawText string
}

// WeatherData holds weather observations from a daily report.
type WeatherData struct {
	Conditions      string `json:"conditions,omitempty" bson:"conditions,omitempty"`
	TemperatureHigh *int   `json:"temperatureHigh,omitempty" bson:"temperatureHigh,omitempty"`
	TemperatureLow  *int   `json:"temperatureLow,omitempty" bson:"temperatureLow,omitempty"`
	Notes           string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// CrewEntry is one crew line in the workforce section.
type CrewEntry struct {
	Trade         string `json:"trade,omitempty" bson:"trade,omitempty"`
	Count         int    `json:"count" bson:"count"`
	Subcontractor string `json:"subcontractor,omitempty" bson:"subcontractor,omitempty"`
}

// WorkforceData holds crew counts from a daily report.
type WorkforceData struct {
	TotalWorkers int         `json:"totalWorkers" bson:"totalWorkers"`
	Crews        []CrewEntry `json:"crews,omitempty" bson:"crews,omitempty"`
	Notes        string      `json:"notes,omitempty" bson:"notes,omitempty"`

	// TotalExplicit records whether TotalWorkers came from a "total:" label
	// in the source text rather than summing crew counts. The conflict
	// detector only compares explicit totals against the crew sum.
	TotalExplicit bool `json:"-" bson:"-"`
}

// WorkArea is one work-area entry.
type WorkArea struct {
	Name   string `json:"name" bson:"name"`
	Status string `json:"status,omitempty" bson:"status,omitempty"`
	Notes  string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// ExtractedData is the aggregate persisted for a completed job. Sections
// absent from the source document are omitted, never defaulted to empty
// structures.
type ExtractedData struct {
	Weather   *WeatherData   `json:"weather,omitempty" bson:"weather,omitempty"`
	Workforce *WorkforceData `json:"workforce,omitempty" bson:"workforce,omitempty"`
	WorkAreas []WorkArea     `json:"workAreas,omitempty" bson:"workAreas,omitempty"`
	Notes     string         `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Severity grades a validation warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidationWarning records one detected inconsistency in extracted data.
type ValidationWarning struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Sections []string `json:"sections"`
	Severity Severity `json:"severity"`
}

// PatternResult holds the four independent section results of one pattern
// extraction pass.
type PatternResult struct {
	Weather   SectionResult[WeatherData]
	Workforce SectionResult[WorkforceData]
	WorkAreas SectionResult[[]WorkArea]
	Notes     SectionResult[string]
}
