package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"rxdesk/m/domain"
)

// ParseError reports model output that is not the expected JSON. Raw is the
// text after fence stripping, kept for debugging.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return "parse extraction output: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var fence = regexp.MustCompile("(?m)^```(?:json|JSON)?\\s*|\\s*```\\s*$")

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	return strings.TrimSpace(fence.ReplaceAllString(raw, ""))
}

// Parse decodes the model's reply into a PrescriptionRequest.
func Parse(raw string) (domain.PrescriptionRequest, error) {
	text := StripFences(raw)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return domain.PrescriptionRequest{}, &ParseError{Raw: text, Err: err}
	}
	meds, ok := envelope["medicines"]
	if !ok {
		return domain.PrescriptionRequest{}, &ParseError{Raw: text, Err: errors.New(`missing "medicines" key`)}
	}

	var req domain.PrescriptionRequest
	dec := json.NewDecoder(bytes.NewReader(meds))
	if err := dec.Decode(&req.Medicines); err != nil {
		return domain.PrescriptionRequest{}, &ParseError{Raw: text, Err: err}
	}
	return req, nil
}
