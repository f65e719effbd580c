package questionnaire

import "github.com/sourceblend/recommender/internal/domain"

// Layout element types consumed by the form renderer.
const (
	layoutVertical = "VerticalLayout"
	layoutControl  = "Control"
)

// Field describes one answer property in the derived schema. The JSON
// rendering follows JSON Schema conventions so the external form
// renderer can consume it directly.
type Field struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Enum        []string `json:"enum,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	UniqueItems bool     `json:"uniqueItems,omitempty"`
	Items       *Items   `json:"items,omitempty"`
	MinItems    *int     `json:"minItems,omitempty"`
}

// Items constrains the element values of an array-typed field.
type Items struct {
	Type string   `json:"type"`
	Enum []string `json:"enum,omitempty"`
}

// Schema is the declarative answer schema derived from a normalized
// questionnaire.
type Schema struct {
	Type       string           `json:"type"`
	Properties map[string]Field `json:"properties"`
	Required   []string         `json:"required"`
}

// Control binds one layout slot to a schema property.
type Control struct {
	Type  string `json:"type"`
	Scope string `json:"scope"`
}

// Layout is the flat presentation layout: one control per question, in
// input order. No grouping, conditional visibility, or nesting.
type Layout struct {
	Type     string    `json:"type"`
	Elements []Control `json:"elements"`
}

// Questionnaire bundles the outputs of Build: the answer schema, the
// presentation layout, and the normalized questions that produced them.
type Questionnaire struct {
	Schema    Schema            `json:"schema"`
	UISchema  Layout            `json:"uischema"`
	Questions []domain.Question `json:"normalizedQuestions"`
}

// Build normalizes the raw questions and derives the answer schema and
// layout from them.
func Build(raw []domain.RawQuestion) Questionnaire {
	return BuildFromNormalized(Normalize(raw))
}

// BuildFromNormalized derives the answer schema and layout from an
// already-normalized question list.
func BuildFromNormalized(questions []domain.Question) Questionnaire {
	properties := make(map[string]Field, len(questions))
	required := []string{}
	elements := make([]Control, 0, len(questions))

	for _, q := range questions {
		properties[q.ID] = buildField(q)
		if q.Required {
			required = append(required, q.ID)
		}
		elements = append(elements, Control{
			Type:  layoutControl,
			Scope: "#/properties/" + q.ID,
		})
	}

	return Questionnaire{
		Schema: Schema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
		UISchema: Layout{
			Type:     layoutVertical,
			Elements: elements,
		},
		Questions: questions,
	}
}

func buildField(q domain.Question) Field {
	switch q.Type {
	case domain.QuestionText:
		field := Field{Type: "string", Title: q.Label}
		if q.Required {
			field.MinLength = intPtr(1)
		}
		return field

	case domain.QuestionMulti:
		items := &Items{Type: "string"}
		// Without options the item values stay unconstrained.
		// This is permissive by design.
		if len(q.Options) > 0 {
			items.Enum = q.Options
		}
		minItems := 0
		if q.Required {
			minItems = 1
		}
		return Field{
			Type:        "array",
			Title:       q.Label,
			UniqueItems: true,
			Items:       items,
			MinItems:    intPtr(minItems),
		}

	default: // single
		field := Field{Type: "string", Title: q.Label}
		if len(q.Options) > 0 {
			field.Enum = q.Options
		}
		return field
	}
}

func intPtr(n int) *int { return &n }
