package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// parseResult decodes a single-job ranking response. The score field is
// required and must be numeric; everything else is optional.
func parseResult(raw string) (*Result, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse ranking response: %w", err)
	}

	return resultFromMap(data)
}

// parseChunk decodes a chunk ranking response. The response must be a JSON
// array with exactly expected entries, each carrying a numeric score;
// otherwise the whole chunk is rejected.
func parseChunk(raw string, expected int) ([]*Result, error) {
	cleaned := extractJSON(raw)

	var data []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse chunk response: %w", err)
	}

	if len(data) != expected {
		return nil, fmt.Errorf("chunk response has %d entries, expected %d", len(data), expected)
	}

	results := make([]*Result, 0, expected)
	for i, item := range data {
		result, err := resultFromMap(item)
		if err != nil {
			return nil, fmt.Errorf("chunk entry %d: %w", i, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func resultFromMap(data map[string]any) (*Result, error) {
	rawScore, ok := data["score"]
	if !ok {
		return nil, errors.New("response is missing the score field")
	}

	score, err := coerceScore(rawScore)
	if err != nil {
		return nil, err
	}

	return &Result{
		Score:     clamp(score, 0, 100),
		Reasoning: coerceString(data["reasoning"]),
		Strengths: coerceStrings(data["strengths"]),
		Concerns:  coerceStrings(data["concerns"]),
	}, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around the
// payload.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceScore(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric score %q", val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("non-numeric score of type %T", v)
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
