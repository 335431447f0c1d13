package extract

import (
	"fmt"
	"strings"
)

// sectionSchemas describes, per section, the JSON shape the fallback model
// must produce inside the {"data": ...} envelope.
var sectionSchemas = map[string]string{
	SectionWeather: `{"conditions": string, "temperatureHigh": integer, "temperatureLow": integer, "notes": string}
All fields optional. Temperatures are degrees Fahrenheit unless the text says otherwise.`,
	SectionWorkforce: `{"totalWorkers": integer, "crews": [{"trade": string, "count": integer, "subcontractor": string}], "notes": string}
Omit crews you cannot identify. totalWorkers is the stated total, or the sum of crew counts if none is stated.`,
	SectionWorkAreas: `[{"name": string, "status": string, "notes": string}]
One entry per distinct work area.`,
}

// BuildFallbackPrompt creates the schema-constrained prompt for re-extracting
// one section the pattern matcher could not parse confidently.
func BuildFallbackPrompt(section, rawText string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Extract the %q section of a construction daily report from the text below.\n\n", section)
	sb.WriteString("Respond with ONLY a JSON object of the form {\"data\": <value>} where <value> matches this schema:\n\n")
	sb.WriteString(sectionSchemas[section])
	sb.WriteString("\n\nIf the text contains no usable information for this section, respond with {\"data\": null}.\n")
	sb.WriteString("Do not invent values that are not supported by the text.\n\n---\n")
	sb.WriteString(rawText)
	return sb.String()
}

const conflictPrompt = `You are reviewing structured data extracted from a construction daily report. Report only clear logical conflicts between the fields, such as:

- weather conditions contradicted by the notes (e.g. "clear skies" vs "work stopped due to heavy rain")
- work area statuses inconsistent with each other or with the notes
- workforce information contradicted by another section

Do not flag stylistic issues, missing data, or plausible-but-unverified values.

Respond with ONLY a JSON object of the form:
{"conflicts": [{"type": string, "message": string, "sections": [string], "severity": "info"|"warning"|"error"}]}

Return {"conflicts": []} if there are no clear conflicts.`

// BuildConflictPrompt creates the semantic conflict-check prompt over the
// full extracted aggregate (serialized as JSON).
func BuildConflictPrompt(dataJSON string) string {
	var sb strings.Builder
	sb.WriteString(conflictPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(dataJSON)
	return sb.String()
}
