package reconcile

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"rxdesk/m/domain"
)

// ValidationError names the first prescription line that cannot be priced.
// It is logged and never returned to callers.
type ValidationError struct {
	Index int
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("medicine %d: invalid %s %q", e.Index, e.Field, e.Value)
}

var errEmptyPrescription = errors.New("prescription lists no medicines")

var (
	// schedulePattern matches a morning-noon-night schedule such as "1-0-1",
	// optionally followed by a note ("1-0-1 after food").
	schedulePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?(?:\s*-\s*\d+(?:\.\d+)?)+)(?:\s+\S.*)?$`)
	// quantityPattern is a number followed by at most a unit. Anything else,
	// ranges included, is rejected.
	quantityPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-z/ ]*)$`)
)

// frequencyUnits are the words accepted after a bare dose count.
var frequencyUnits = map[string]bool{
	"": true, "x": true, "time": true, "times": true, "daily": true,
	"a day": true, "per day": true, "/day": true, "/d": true,
	"x a day": true, "x daily": true, "x per day": true,
	"time a day": true, "time daily": true, "time per day": true,
	"times a day": true, "times daily": true, "times per day": true,
}

var durationUnits = map[string]float64{
	"": 1, "d": 1, "day": 1, "days": 1,
	"w": 7, "wk": 7, "wks": 7, "week": 7, "weeks": 7,
	"m": 30, "mo": 30, "month": 30, "months": 30,
}

// number parses s as a whole, so "1e3" is 1000 and "5 days" is not a number.
// matched reports whether s was numeric at all.
func number(s string) (v float64, matched bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true
	}
	return v, true
}

func positive(v float64) (float64, bool) {
	if v > 0 {
		return v, true
	}
	return 0, false
}

// dosesPerDay reads a frequency such as 2, "2", "2 times a day" or the
// morning-noon-night schedule "1-0-1".
func dosesPerDay(a domain.Amount) (float64, bool) {
	if !a.Valid {
		return 0, false
	}
	s := strings.ToLower(strings.TrimSpace(a.Raw))
	if v, ok := number(s); ok {
		return positive(v)
	}
	if m := schedulePattern.FindStringSubmatch(s); m != nil {
		total := 0.0
		for _, part := range strings.Split(m[1], "-") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return 0, false
			}
			total += v
		}
		return total, total > 0
	}
	m := quantityPattern.FindStringSubmatch(s)
	if m == nil || !frequencyUnits[strings.Join(strings.Fields(m[2]), " ")] {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// days reads a duration such as 5, "5", "5 days" or "2 weeks". Ranges like
// "5-7 days" are invalid.
func days(a domain.Amount) (float64, bool) {
	if !a.Valid {
		return 0, false
	}
	s := strings.ToLower(strings.TrimSpace(a.Raw))
	if v, ok := number(s); ok {
		return positive(v)
	}
	m := quantityPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	factor, ok := durationUnits[strings.TrimSpace(m[2])]
	if !ok {
		return 0, false
	}
	return v * factor, true
}

// maxQuantity bounds a single line well inside int64.
const maxQuantity = 1e12

// requiredQuantity truncates frequency × duration to whole units. The small
// epsilon absorbs float error such as 2.3*10 = 22.999999999999996.
func requiredQuantity(perDay, days float64) int64 {
	p := perDay * days
	if p > maxQuantity {
		return 0
	}
	return int64(math.Trunc(p + 1e-9))
}

type line struct {
	name     string
	quantity int64
}

// price validates every item and computes its required quantity. It fails on
// the first unusable item.
func price(req domain.PrescriptionRequest) ([]line, error) {
	if len(req.Medicines) == 0 {
		return nil, errEmptyPrescription
	}
	lines := make([]line, 0, len(req.Medicines))
	for i, item := range req.Medicines {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, &ValidationError{Index: i, Field: "name", Value: item.Name}
		}
		perDay, ok := dosesPerDay(item.Frequency)
		if !ok {
			return nil, &ValidationError{Index: i, Field: "frequency", Value: item.Frequency.Raw}
		}
		d, ok := days(item.Duration)
		if !ok {
			return nil, &ValidationError{Index: i, Field: "duration", Value: item.Duration.Raw}
		}
		qty := requiredQuantity(perDay, d)
		if qty < 1 {
			return nil, &ValidationError{Index: i, Field: "required quantity", Value: strconv.FormatInt(qty, 10)}
		}
		lines = append(lines, line{name: name, quantity: qty})
	}
	return lines, nil
}

// aggregate sums demand per drug name, keeping first-seen order.
func aggregate(lines []line) []line {
	index := make(map[string]int, len(lines))
	out := make([]line, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.name]; ok {
			out[i].quantity += l.quantity
			continue
		}
		index[l.name] = len(out)
		out = append(out, l)
	}
	return out
}
