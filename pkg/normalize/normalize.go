// Package normalize coerces loosely formatted model output into structured
// data, degrading to cleaned plain text when nothing parses.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// ErrParseDegraded reports that a response fell back to plain text.
var ErrParseDegraded = errors.New("response is not structured data, kept as plain text")

// Response is the outcome of normalization. Value is a decoded JSON value
// (map[string]any, []any, float64, bool, nil) or a string.
type Response struct {
	Value    any
	Degraded bool
}

// Err returns ErrParseDegraded when the response fell back to plain text.
func (r Response) Err() error {
	if r.Degraded {
		return ErrParseDegraded
	}
	return nil
}

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	braceSpan  = regexp.MustCompile(`(?s)\{.*\}`)

	smartQuotes = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"„", `"`,
		"‟", `"`,
		"″", `"`,
	)
)

// extractor narrows raw text down to a JSON candidate.
type extractor func(string) (string, bool)

// parser turns a candidate into a decoded value.
type parser func(string) (any, error)

// extractors run in order; the first match wins, else the whole text is used.
var extractors = []extractor{
	func(s string) (string, bool) {
		m := fencedJSON.FindStringSubmatch(s)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
	func(s string) (string, bool) {
		m := braceSpan.FindString(s)
		return m, m != ""
	},
}

// parsers run in order; the first success wins.
var parsers = []parser{
	parseStrict,
	parseRepaired,
}

// Normalizer extracts structured data from model output.
type Normalizer struct {
	logger *zap.Logger
}

// New creates a Normalizer. A nil logger discards warnings.
func New(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Normalize never fails: when no parser accepts the candidate, the cleaned
// candidate text is returned with Degraded set.
func (n *Normalizer) Normalize(raw any) Response {
	var text string

	switch v := raw.(type) {
	case nil:
		return Response{Value: ""}
	case string:
		text = v
	case []byte:
		text = string(v)
	case json.RawMessage:
		text = string(v)
	default:
		if parsed, err := roundTrip(v); err == nil {
			return Response{Value: parsed}
		}
		text = fmt.Sprint(v)
	}

	if text == "" {
		return Response{Value: ""}
	}

	candidate := Candidate(text)

	for _, parse := range parsers {
		if v, err := parse(candidate); err == nil {
			return Response{Value: v}
		}
	}

	n.logger.Warn("response did not parse as JSON, keeping plain text",
		zap.Int("length", len(candidate)),
		zap.String("preview", preview(candidate, 80)),
	)

	return Response{Value: candidate, Degraded: true}
}

// Normalize runs a Normalizer that discards warnings.
func Normalize(raw any) Response {
	return New(nil).Normalize(raw)
}

// Candidate picks the JSON candidate out of text and applies the newline and
// quote normalization.
func Candidate(text string) string {
	candidate := text
	for _, extract := range extractors {
		if c, ok := extract(text); ok {
			candidate = c
			break
		}
	}

	candidate = strings.ReplaceAll(candidate, "\n", " ")
	return smartQuotes.Replace(candidate)
}

func roundTrip(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return parseStrict(string(data))
}

func parseStrict(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// errNotStructured rejects candidates that do not open an object or array.
var errNotStructured = errors.New("candidate does not start with '{' or '['")

// parseRepaired only repairs candidates that open an object or array, and only
// accepts repairs that produce one. Comma-separated prose would otherwise come
// back as a top-level array.
func parseRepaired(s string) (any, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, errNotStructured
	}

	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err != nil {
		return nil, fmt.Errorf("repair: %w", err)
	}

	v, err := parseStrict(repaired)
	if err != nil {
		return nil, fmt.Errorf("parse repaired: %w", err)
	}

	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	default:
		return nil, fmt.Errorf("repair produced %T, not an object or array", v)
	}
}

func preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
