package extract

import (
	"context"
	"encoding/json"
	"log/slog"
)

// WarningWorkforceTotalMismatch flags an explicit workforce total that does
// not equal the sum of parsed crew counts.
const WarningWorkforceTotalMismatch = "workforce_total_mismatch"

// ConflictDetector checks extracted data for internal inconsistencies. It
// runs a deterministic numeric pass and a semantic pass delegated to the
// language model. Detection is best-effort: no failure here is ever fatal
// to the job.
type ConflictDetector struct {
	llm Completer
	log *slog.Logger
}

func NewConflictDetector(llm Completer, log *slog.Logger) *ConflictDetector {
	return &ConflictDetector{llm: llm, log: log}
}

// Detect returns the concatenated warnings of both phases. The semantic
// phase is skipped entirely when weather, workforce, and notes are all
// absent — there is nothing for the model to cross-check.
func (d *ConflictDetector) Detect(ctx context.Context, data ExtractedData) []ValidationWarning {
	warnings := detectNumeric(data)

	if data.Weather == nil && data.Workforce == nil && data.Notes == "" {
		return warnings
	}
	return append(warnings, d.detectSemantic(ctx, data)...)
}

func detectNumeric(data ExtractedData) []ValidationWarning {
	wf := data.Workforce
	if wf == nil || !wf.TotalExplicit || len(wf.Crews) == 0 {
		return nil
	}
	sum := 0
	for _, c := range wf.Crews {
		sum += c.Count
	}
	if sum == wf.TotalWorkers {
		return nil
	}
	return []ValidationWarning{{
		Type:     WarningWorkforceTotalMismatch,
		Message:  "stated workforce total does not match the sum of crew counts",
		Sections: []string{SectionWorkforce},
		Severity: SeverityWarning,
	}}
}

// detectSemantic asks the model for clear logical conflicts across sections.
// Any transport or parse failure degrades to an empty result.
func (d *ConflictDetector) detectSemantic(ctx context.Context, data ExtractedData) []ValidationWarning {
	payload, err := json.Marshal(data)
	if err != nil {
		d.log.Warn("conflict detection skipped, marshal failed", "error", err)
		return nil
	}

	out, err := d.llm.Complete(ctx, BuildConflictPrompt(string(payload)))
	if err != nil {
		d.log.Warn("semantic conflict detection failed", "error", err)
		return nil
	}

	var resp struct {
		Conflicts []ValidationWarning `json:"conflicts"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		d.log.Warn("semantic conflict detection returned malformed json", "error", err)
		return nil
	}

	for i := range resp.Conflicts {
		switch resp.Conflicts[i].Severity {
		case SeverityInfo, SeverityWarning, SeverityError:
		default:
			resp.Conflicts[i].Severity = SeverityWarning
		}
	}
	return resp.Conflicts
}
