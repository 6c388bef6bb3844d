package extraction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxdesk/m/internal/extraction"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extraction.StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extraction.StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extraction.StripFences("  {\"a\":1}  "))
}

func TestParse(t *testing.T) {
	raw := "```json\n" + `{
  "medicines": [
    {"name": "Paracetamol", "dosage": "500mg", "frequency": 2, "duration": "5 days", "required_quantity": 10, "Availability": "Yes"},
    {"name": "Amoxicillin", "frequency": "1-0-1", "duration": null}
  ]
}` + "\n```"

	req, err := extraction.Parse(raw)
	require.NoError(t, err)
	require.Len(t, req.Medicines, 2)

	first := req.Medicines[0]
	assert.Equal(t, "Paracetamol", first.Name)
	assert.Equal(t, "500mg", first.Dosage.Raw)
	assert.Equal(t, "2", first.Frequency.Raw)
	assert.Equal(t, "5 days", first.Duration.Raw)
	assert.True(t, first.RequiredQuantity.Valid)

	second := req.Medicines[1]
	assert.Equal(t, "1-0-1", second.Frequency.Raw)
	assert.False(t, second.Duration.Valid)
	assert.False(t, second.Dosage.Valid)
}

func TestParseErrors(t *testing.T) {
	for name, raw := range map[string]string{
		"prose":           "Sorry, I cannot read this prescription.",
		"truncated":       `{"medicines": [{"name": "Paracetamol"`,
		"missing key":     `{"drugs": []}`,
		"medicines shape": `{"medicines": {"name": "Paracetamol"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := extraction.Parse(raw)
			var perr *extraction.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, extraction.StripFences(raw), perr.Raw)
		})
	}
}

func TestParseEmptyMedicines(t *testing.T) {
	req, err := extraction.Parse(`{"medicines": []}`)
	require.NoError(t, err)
	assert.Empty(t, req.Medicines)
}
