package prompt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// verdictPayload mirrors the JSON schema the prompt demands. Fields
// that models return inconsistently (string vs list, string vs number)
// are kept raw and decoded tolerantly.
type verdictPayload struct {
	NonCompliant json.RawMessage `json:"non_compliant"`
	Category     json.RawMessage `json:"Category"`
	Reason       string          `json:"reason"`
	Evidence     []string        `json:"evidence"`
	Confidence   json.RawMessage `json:"confidence_score"`
}

// ParseVerdict interprets an LLM response as a structured verdict.
// Responses that fail structured parsing are reported as a
// *core.MalformedVerdictError for that single email.
func ParseVerdict(responseText string) (*core.Verdict, error) {
	var payload verdictPayload
	if err := json.Unmarshal([]byte(responseText), &payload); err != nil {
		// Models sometimes wrap the JSON in prose; extract the
		// outermost object and retry
		jsonStr, ok := extractJSON(responseText)
		if !ok {
			return nil, &core.MalformedVerdictError{Raw: responseText, Err: err}
		}
		if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
			return nil, &core.MalformedVerdictError{Raw: responseText, Err: err}
		}
	}

	nonCompliant, err := decodeYesNo(payload.NonCompliant)
	if err != nil {
		return nil, &core.MalformedVerdictError{Raw: responseText, Err: err}
	}

	categories := decodeCategories(payload.Category, nonCompliant)

	return &core.Verdict{
		NonCompliant: nonCompliant,
		Categories:   categories,
		Reason:       payload.Reason,
		Evidence:     payload.Evidence,
		Confidence:   decodeConfidence(payload.Confidence),
		AnalyzedAt:   time.Now(),
	}, nil
}

// extractJSON finds the outermost {...} span in a text response
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeYesNo accepts "Yes"/"No" strings or a bare boolean
func decodeYesNo(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 {
		return false, fmt.Errorf("missing non_compliant field")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "yes"), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	return false, fmt.Errorf("non_compliant is neither string nor bool: %s", raw)
}

// decodeCategories accepts a single string or a list of strings. A
// missing, empty or "nan" category normalizes to Compliant, as does
// any category on a compliant verdict.
func decodeCategories(raw json.RawMessage, nonCompliant bool) core.CategorySet {
	classification := core.ClassificationNonCompliant
	if !nonCompliant {
		classification = core.ClassificationCompliant
	}

	var names []string
	if len(raw) > 0 {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" && !strings.EqualFold(s, "nan") {
				names = core.SplitCategoryField(s)
			}
		} else {
			var list []string
			if err := json.Unmarshal(raw, &list); err == nil {
				// Lists are comma-joined then re-split so a list of
				// comma-joined entries still normalizes cleanly
				names = core.SplitCategoryField(strings.Join(list, ", "))
			}
		}
	}

	return core.NormalizeCategories(classification, names...)
}

// decodeConfidence accepts a number or a numeric string, clamped to the
// 1-5 scale. Missing or undecodable confidence reports as 0.
func decodeConfidence(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		n = parsed
	}
	confidence := int(n)
	if confidence < 1 {
		return 0
	}
	if confidence > 5 {
		return 5
	}
	return confidence
}
