package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmpty is returned when a required value is blank.
var ErrEmpty = errors.New("empty value")

// Field is a telemetry value that may arrive as a JSON string ("7.2") or as a
// bare JSON number (7.2). Both decode to the same textual form.
type Field string

// UnmarshalJSON accepts strings, numbers and null.
func (f *Field) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Field(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or number, got %s", string(b))
	}
	*f = Field(n.String())
	return nil
}

// Float parses a decimal value. Empty, NaN and infinite input are rejected.
func Float(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrEmpty
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", raw)
	}
	return v, nil
}

// Int parses an integer value. Decimal input is truncated toward zero, so
// "180.7" reads as 180.
func Int(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrEmpty
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := Float(s)
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("integer out of range: %q", raw)
	}
	return int(v), nil
}

// OptionalInt is Int for fields that may be absent; a blank value yields nil.
func OptionalInt(raw string) (*int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	n, err := Int(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
