package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxdesk/m/domain"
)

func TestDosesPerDay(t *testing.T) {
	cases := []struct {
		in   domain.Amount
		want float64
		ok   bool
	}{
		{domain.NewAmount("2"), 2, true},
		{domain.NewAmount("2 times a day"), 2, true},
		{domain.NewAmount("1-0-1"), 2, true},
		{domain.NewAmount("1 - 1 - 1"), 3, true},
		{domain.NewAmount("1-0-1 after food"), 2, true},
		{domain.NewAmount("1-1-1 with water"), 3, true},
		{domain.NewAmount("1e3"), 1000, true},
		{domain.NewAmount("1.5"), 1.5, true},
		{domain.NewAmount("3x daily"), 3, true},
		{domain.NewAmount("2 times per day"), 2, true},
		{domain.NewAmount("2 tablets after food"), 0, false},
		{domain.NewAmount("1-0-1x"), 0, false},
		{domain.NewAmount("-2"), 0, false},
		{domain.NewAmount("NaN"), 0, false},
		{domain.NewAmount("Inf"), 0, false},
		{domain.NewAmount("0-0-0"), 0, false},
		{domain.NewAmount("0"), 0, false},
		{domain.NewAmount("twice"), 0, false},
		{domain.NewAmount(""), 0, false},
		{domain.Amount{}, 0, false},
	}
	for _, c := range cases {
		got, ok := dosesPerDay(c.in)
		assert.Equal(t, c.ok, ok, c.in.Raw)
		assert.Equal(t, c.want, got, c.in.Raw)
	}
}

func TestDays(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"5", 5, true},
		{"5 days", 5, true},
		{"1 week", 7, true},
		{"2 weeks", 14, true},
		{"1 month", 30, true},
		{"3d", 3, true},
		{"1e1", 10, true},
		{"2.5", 2.5, true},
		{"5-7 days", 0, false},
		{"1-2 weeks", 0, false},
		{"5 days after food", 0, false},
		{"NaN", 0, false},
		{"5 fortnights", 0, false},
		{"-5", 0, false},
		{"a while", 0, false},
	}
	for _, c := range cases {
		got, ok := days(domain.NewAmount(c.in))
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
	_, ok := days(domain.Amount{})
	assert.False(t, ok)
}

func TestRequiredQuantityTruncates(t *testing.T) {
	assert.EqualValues(t, 10, requiredQuantity(2, 5))
	assert.EqualValues(t, 7, requiredQuantity(1.5, 5))
	assert.EqualValues(t, 23, requiredQuantity(2.3, 10))
	assert.EqualValues(t, 0, requiredQuantity(0.5, 1))
	assert.EqualValues(t, 0, requiredQuantity(1e7, 1e7))
}

func TestPrice(t *testing.T) {
	item := func(name, freq, dur string) domain.PrescriptionItem {
		return domain.PrescriptionItem{Name: name, Frequency: domain.NewAmount(freq), Duration: domain.NewAmount(dur)}
	}

	lines, err := price(domain.PrescriptionRequest{Medicines: []domain.PrescriptionItem{
		item(" Paracetamol ", "2", "5 days"),
		item("Amoxicillin", "1-0-1", "1 week"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []line{{"Paracetamol", 10}, {"Amoxicillin", 14}}, lines)

	_, err = price(domain.PrescriptionRequest{})
	assert.ErrorIs(t, err, errEmptyPrescription)

	_, err = price(domain.PrescriptionRequest{Medicines: []domain.PrescriptionItem{item("  ", "2", "5")}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = price(domain.PrescriptionRequest{Medicines: []domain.PrescriptionItem{
		item("Paracetamol", "2", "5"),
		{Name: "Ibuprofen", Frequency: domain.NewAmount("3")},
	}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Index)
	assert.Equal(t, "duration", verr.Field)

	_, err = price(domain.PrescriptionRequest{Medicines: []domain.PrescriptionItem{item("Paracetamol", "0.5", "1")}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required quantity", verr.Field)
}

func TestAggregate(t *testing.T) {
	got := aggregate([]line{{"A", 2}, {"B", 3}, {"A", 4}})
	assert.Equal(t, []line{{"A", 6}, {"B", 3}}, got)
}
