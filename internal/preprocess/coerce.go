// Package preprocess normalizes the flat row dictionaries produced by the
// extractors. Two passes run over every row: type coercion, then enum
// mapping. Vendor payloads mix integer enum codes with stringified integers
// in the same column across rows, so downstream code must only ever see
// canonical typed values or nil.
package preprocess

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// nullTokens are the vendor spellings of "no value".
var nullTokens = map[string]struct{}{
	"":     {},
	"-":    {},
	"—":    {},
	"N/A":  {},
	"NA":   {},
	"null": {},
	"NONE": {},
	"--":   {},
}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	return s
}

// ToIntOrNil coerces v to *int, treating vendor null tokens as nil.
// Floats with no fractional part are accepted; NaN and ±Inf are rejected.
func ToIntOrNil(v any) (*int, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int:
		return &t, nil
	case int64:
		n := int(t)
		return &n, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("non-finite value %v", t)
		}
		if t != math.Trunc(t) {
			return nil, fmt.Errorf("fractional value %v is not an int", t)
		}
		n := int(t)
		return &n, nil
	case bool:
		n := 0
		if t {
			n = 1
		}
		return &n, nil
	case string:
		if isNullToken(t) {
			return nil, nil
		}
		s := cleanNumeric(t)
		if n, err := strconv.Atoi(s); err == nil {
			return &n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return ToIntOrNil(f)
		}
		return nil, fmt.Errorf("cannot coerce %q to int", t)
	default:
		return nil, fmt.Errorf("cannot coerce %T to int", v)
	}
}

// ToFloatOrNil coerces v to *float64, stripping commas and percent signs.
func ToFloatOrNil(v any) (*float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("non-finite value %v", t)
		}
		return &t, nil
	case int:
		f := float64(t)
		return &f, nil
	case int64:
		f := float64(t)
		return &f, nil
	case string:
		if isNullToken(t) {
			return nil, nil
		}
		f, err := strconv.ParseFloat(cleanNumeric(t), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to float", t)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite value %q", t)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to float", v)
	}
}

// ToStrOrNil coerces v to *string. Numbers are rendered without a decimal
// point when integral, matching vendor id columns.
func ToStrOrNil(v any) (*string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if isNullToken(t) {
			return nil, nil
		}
		s := strings.TrimSpace(t)
		return &s, nil
	case int:
		s := strconv.Itoa(t)
		return &s, nil
	case int64:
		s := strconv.FormatInt(t, 10)
		return &s, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("non-finite value %v", t)
		}
		var s string
		if t == math.Trunc(t) {
			s = strconv.FormatInt(int64(t), 10)
		} else {
			s = strconv.FormatFloat(t, 'f', -1, 64)
		}
		return &s, nil
	case bool:
		s := strconv.FormatBool(t)
		return &s, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to string", v)
	}
}

// ToBoolOrNil coerces v to *bool. Numeric values map zero→false.
func ToBoolOrNil(v any) (*bool, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &t, nil
	case int:
		b := t != 0
		return &b, nil
	case int64:
		b := t != 0
		return &b, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("non-finite value %v", t)
		}
		b := t != 0
		return &b, nil
	case string:
		if isNullToken(t) {
			return nil, nil
		}
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "t", "yes", "y", "1":
			b := true
			return &b, nil
		case "false", "f", "no", "n", "0":
			b := false
			return &b, nil
		}
		return nil, fmt.Errorf("cannot coerce %q to bool", t)
	default:
		return nil, fmt.Errorf("cannot coerce %T to bool", v)
	}
}
