package extract

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Completer is the language-model transport used by the fallback extractor
// and the conflict detector.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FallbackExtractor re-extracts sections the pattern matcher flagged, using
// the language model with a section-specific schema-constrained prompt.
type FallbackExtractor struct {
	llm Completer
	log *slog.Logger
}

func NewFallbackExtractor(llm Completer, log *slog.Logger) *FallbackExtractor {
	return &FallbackExtractor{llm: llm, log: log}
}

// fallbackEnvelope is the response contract: the model wraps its answer (or
// null) under a single "data" key.
type fallbackEnvelope[T any] struct {
	Data *T `json:"data"`
}

// ExtractSection resolves one flagged section. The fallback is terminal: an
// empty response, malformed JSON, a null payload, or a transport error all
// yield an absent low-confidence result, never an error and never a retry.
func ExtractSection[T any](ctx context.Context, f *FallbackExtractor, section, rawText string) SectionResult[T] {
	failed := SectionResult[T]{Confidence: ConfidenceLow, RawText: rawText}

	out, err := f.llm.Complete(ctx, BuildFallbackPrompt(section, rawText))
	if err != nil {
		f.log.Warn("fallback extraction failed", "section", section, "error", err)
		return failed
	}
	if out == "" {
		f.log.Warn("fallback extraction returned empty response", "section", section)
		return failed
	}

	var env fallbackEnvelope[T]
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		f.log.Warn("fallback extraction returned malformed json", "section", section, "error", err)
		return failed
	}
	if env.Data == nil {
		return failed
	}

	return SectionResult[T]{Data: env.Data, Confidence: ConfidenceMedium, RawText: rawText}
}
