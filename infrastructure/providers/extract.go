package providers

import (
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// Envelope field discriminators used by the provider response format.
const (
	outputTypeMessage = "message"
	contentTypeText   = "output_text"
)

// ResponseEnvelope mirrors the provider's nested response format, where
// the answer text sits inside a list of heterogeneous output items.
type ResponseEnvelope struct {
	Output []OutputItem `json:"output"`
}

// OutputItem is one entry of the envelope's output list.
type OutputItem struct {
	Type    string        `json:"type"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one entry of a message item's content list.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ExtractText pulls the textual payload out of the response envelope:
// the first message-type output item whose first output_text part
// carries non-empty text wins. A message whose first output_text part
// is empty is skipped whole. Returns the empty string when no item
// qualifies.
func ExtractText(envelope ResponseEnvelope) string {
	for _, item := range envelope.Output {
		if item.Type != outputTypeMessage {
			continue
		}
		for _, part := range item.Content {
			if part.Type != contentTypeText {
				continue
			}
			if part.Text != "" {
				return part.Text
			}
			break
		}
	}
	return ""
}

// fencedBlock matches a triple-backtick code fence, optionally tagged
// "json", and captures its contents.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// recoveryStrategies is the ordered chain of payload-recovery attempts:
// direct parse, fenced code block, then the substring between the first
// '{' and the last '}'. Each strategy proposes a candidate substring;
// the first candidate that parses wins. The layered recovery exists
// because language-model output reliably wraps JSON in prose or
// markdown fences despite explicit formatting instructions.
var recoveryStrategies = []func(string) (string, bool){
	func(text string) (string, bool) {
		return strings.TrimSpace(text), true
	},
	func(text string) (string, bool) {
		m := fencedBlock.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
	func(text string) (string, bool) {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return "", false
		}
		return text[start : end+1], true
	},
}

// DecodeJSONPayload recovers a well-formed JSON object from noisy text
// and unmarshals it into v. It reports false when every recovery
// strategy fails.
func DecodeJSONPayload(text string, v any) bool {
	for _, strategy := range recoveryStrategies {
		candidate, ok := strategy(text)
		if !ok || candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return true
		}
	}
	return false
}

// ParseJSONPayload recovers a JSON object from noisy text and returns
// it as a generic map, or nil and false when no strategy succeeds.
func ParseJSONPayload(text string) (map[string]any, bool) {
	var payload map[string]any
	if !DecodeJSONPayload(text, &payload) {
		return nil, false
	}
	return payload, true
}
