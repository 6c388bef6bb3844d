package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Amount holds a loosely typed value exactly as extraction produced it.
// Models return both numbers ("2") and prose ("5 days"), so the raw text is
// kept and coerced later. Valid is false when the key was missing or null.
type Amount struct {
	Raw   string
	Valid bool
}

func NewAmount(raw string) Amount {
	return Amount{Raw: raw, Valid: true}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = Amount{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Amount{Raw: s, Valid: true}
		return nil
	}
	// Numbers, booleans and objects are kept verbatim; coercion rejects
	// anything that is not a number.
	*a = Amount{Raw: string(b), Valid: true}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(a.Raw, 64); err == nil {
		return []byte(a.Raw), nil
	}
	return json.Marshal(a.Raw)
}

// PrescriptionItem is one medicine line read from a prescription image.
// RequiredQuantity and Availability are whatever the model claimed and are
// never used for stock decisions.
type PrescriptionItem struct {
	Name             string          `json:"name"`
	Dosage           Amount          `json:"dosage"`
	Frequency        Amount          `json:"frequency"`
	Duration         Amount          `json:"duration"`
	RequiredQuantity Amount          `json:"required_quantity"`
	Availability     json.RawMessage `json:"Availability,omitempty"`
}

type PrescriptionRequest struct {
	Medicines []PrescriptionItem `json:"medicines"`
}

type Outcome string

const (
	OutcomeFulfilled    Outcome = "FULFILLED"
	OutcomeInsufficient Outcome = "INSUFFICIENT"
)

const (
	MessageFulfilled    = "Inventory update successful."
	MessageInsufficient = "Information insufficient, inventory update not successful."
)

// Message returns the canonical user-facing text for the outcome.
func (o Outcome) Message() string {
	if o == OutcomeFulfilled {
		return MessageFulfilled
	}
	return MessageInsufficient
}
