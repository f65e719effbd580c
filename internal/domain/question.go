package domain

// QuestionType identifies the answer shape a question expects.
type QuestionType string

// Supported question types.
const (
	// QuestionSingle expects exactly one choice from the question's options.
	QuestionSingle QuestionType = "single"

	// QuestionMulti expects zero or more choices from the question's options.
	QuestionMulti QuestionType = "multi"

	// QuestionText expects free-form text input.
	QuestionText QuestionType = "text"
)

// Question is a single normalized questionnaire entry.
// Instances are produced by the questionnaire normalizer and are
// guaranteed to satisfy the invariants documented on each field.
type Question struct {
	// ID is a stable slug matching [a-z0-9_]+, unique within a
	// questionnaire, never empty and never starting or ending with '_'.
	ID string `json:"id"`

	// Label is the non-empty display string shown to the respondent.
	Label string `json:"label"`

	// Type determines the answer shape. Defaults to QuestionSingle
	// during normalization.
	Type QuestionType `json:"type"`

	// Options holds the ordered, trimmed, non-empty choice strings.
	// Always empty for QuestionText.
	Options []string `json:"options"`

	// Required marks the question as mandatory in the derived schema.
	Required bool `json:"required"`
}

// RawQuestion is an unvalidated question-like record as received from
// the transport layer. Every field may be absent or hold malformed
// data of any JSON type; normalization always succeeds by coercing
// values and substituting defaults, because the questionnaire must
// always be renderable.
type RawQuestion struct {
	ID       any `json:"id"`
	Label    any `json:"label"`
	Type     any `json:"type"`
	Options  any `json:"options"`
	Required any `json:"required"`
}

// AnswerSet maps question IDs to answer values. The value shape depends
// on the question type: string for single/text, []string (or []any of
// strings after JSON decoding) for multi. The engine passes answers
// through to providers without validating them against the schema;
// validation is the rendering collaborator's responsibility.
type AnswerSet map[string]any
