// Package questionnaire turns raw, unvalidated question definitions
// into a canonical questionnaire: normalized questions plus a
// declarative answer schema and presentation layout for the external
// form-rendering collaborator.
package questionnaire

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sourceblend/recommender/internal/domain"
)

var (
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9_]`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// Normalize sanitizes an ordered sequence of raw question records into
// canonical Questions. It never fails: malformed fields are coerced and
// absent ones replaced by positional defaults, so the questionnaire is
// always renderable.
func Normalize(raw []domain.RawQuestion) []domain.Question {
	questions := make([]domain.Question, len(raw))
	for i, rq := range raw {
		q := domain.Question{
			ID:       normalizeID(asString(rq.ID), i),
			Label:    normalizeLabel(asString(rq.Label), i),
			Type:     normalizeType(asString(rq.Type)),
			Required: isTruthy(rq.Required),
		}
		if q.Type != domain.QuestionText {
			q.Options = normalizeOptions(rq.Options)
		} else {
			q.Options = []string{}
		}
		questions[i] = q
	}
	return questions
}

// normalizeID derives a stable slug matching [a-z0-9_]+: lower-cased,
// runs of non-alphanumeric characters collapsed to a single underscore,
// leading and trailing underscores stripped. Falls back to
// "question_<n>" (1-based) when nothing usable remains.
func normalizeID(raw string, index int) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	id = nonSlugChars.ReplaceAllString(id, "_")
	id = underscoreRun.ReplaceAllString(id, "_")
	id = strings.Trim(id, "_")
	if id == "" {
		return fmt.Sprintf("question_%d", index+1)
	}
	return id
}

func normalizeLabel(raw string, index int) string {
	label := strings.TrimSpace(raw)
	if label == "" {
		return fmt.Sprintf("Question %d", index+1)
	}
	return label
}

func normalizeType(raw string) domain.QuestionType {
	switch domain.QuestionType(strings.TrimSpace(raw)) {
	case domain.QuestionMulti:
		return domain.QuestionMulti
	case domain.QuestionText:
		return domain.QuestionText
	default:
		return domain.QuestionSingle
	}
}

// normalizeOptions coerces each option to a trimmed string and drops
// empty results. Non-list values yield an empty option set.
func normalizeOptions(raw any) []string {
	options := []string{}
	switch values := raw.(type) {
	case []any:
		for _, v := range values {
			if opt := strings.TrimSpace(asString(v)); opt != "" {
				options = append(options, opt)
			}
		}
	case []string:
		for _, v := range values {
			if opt := strings.TrimSpace(v); opt != "" {
				options = append(options, opt)
			}
		}
	}
	return options
}

// asString coerces any JSON-decoded value to its string rendering.
// Nil yields the empty string so absent fields hit their defaults.
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// isTruthy applies loose boolean coercion: nil, false, zero numbers,
// and empty strings are false; everything else is true.
func isTruthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	case int:
		return b != 0
	default:
		return true
	}
}
