package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"morningo-backend/internal/models"
)

// QuizPayload is the validated form of one model reply.
type QuizPayload struct {
	Questions []models.QuizQuestion
	Notes     []string
}

// ParseQuizResponse decodes the model's raw reply and normalizes it. The
// caller is expected to have already stripped markdown fences.
func ParseQuizResponse(raw string) (*QuizPayload, error) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrNoQuestionArray, err)
	}
	return NormalizeQuizPayload(value)
}

// NormalizeQuizPayload converts an arbitrarily shaped decoded JSON value into
// validated questions plus note lines. Model output is unreliable, so the
// policy is tolerance, not strictness: items missing a full set of 4 options
// are silently dropped, out-of-range answer indexes are clamped, and missing
// text fields get defaults. Only two conditions are fatal: no question array
// at all, and no item surviving validation.
func NormalizeQuizPayload(value any) (*QuizPayload, error) {
	var candidates []any
	switch v := value.(type) {
	case map[string]any:
		list, ok := v["questions"].([]any)
		if !ok {
			return nil, ErrNoQuestionArray
		}
		candidates = list
	case []any:
		candidates = v
	default:
		return nil, ErrNoQuestionArray
	}

	questions := make([]models.QuizQuestion, 0, len(candidates))
	for idx, raw := range candidates {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		options := stringValues(fieldOrFallback(item, "options", "opts"))
		if len(options) < 4 {
			continue
		}
		options = options[:4]

		correctIndex := coerceInt(fieldOrFallback(item, "correctIndex", "correct"))
		if correctIndex < 0 {
			correctIndex = 0
		}
		if correctIndex > len(options)-1 {
			correctIndex = len(options) - 1
		}

		questionText := stringify(fieldOrFallback(item, "question", "q"))
		if questionText == "" {
			questionText = fmt.Sprintf("Question %d", idx+1)
		}

		questions = append(questions, models.QuizQuestion{
			Question:     questionText,
			Options:      options,
			CorrectIndex: correctIndex,
			Explanation:  stringify(item["explanation"]),
		})
	}

	if len(questions) == 0 {
		return nil, ErrEmptyQuiz
	}

	return &QuizPayload{
		Questions: questions,
		Notes:     extractNotes(value),
	}, nil
}

// extractNotes reads the top-level notes field when present: a string splits
// into trimmed lines, a list stringifies element by element, anything else
// yields no notes. Never fails.
func extractNotes(value any) []string {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	var notes []string
	switch n := obj["notes"].(type) {
	case string:
		for _, line := range strings.Split(n, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				notes = append(notes, trimmed)
			}
		}
	case []any:
		for _, entry := range n {
			if trimmed := strings.TrimSpace(stringify(entry)); trimmed != "" {
				notes = append(notes, trimmed)
			}
		}
	}
	return notes
}

func fieldOrFallback(item map[string]any, key, fallback string) any {
	if v, ok := item[key]; ok {
		return v
	}
	return item[fallback]
}

func stringValues(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	for i, entry := range list {
		out[i] = stringify(entry)
	}
	return out
}

// stringify renders a decoded JSON value as a single line: strings pass
// through, structured values render as compact JSON.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// coerceInt converts the loose shapes models emit for an index (number,
// numeric string) to an int, defaulting to 0 when nothing parses.
func coerceInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	case bool:
		if n {
			return 1
		}
		return 0
	}
	return 0
}
