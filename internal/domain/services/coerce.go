package services

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01",
	"2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// coerceProperty converts value to the declared type. Benign shape
// differences (numbers as strings, a scalar where an array is declared) are
// repaired; anything else is an error describing the mismatch.
func coerceProperty(p entities.PropertyConstraint, value any) (any, error) {
	if p.Type == entities.DataTypeArray {
		return coerceArray(p, value)
	}
	v, err := coerceScalar(p.Type, p.Format, value)
	if err != nil {
		return nil, err
	}
	if err := checkConstraints(p, v); err != nil {
		return nil, err
	}
	return v, nil
}

func coerceArray(p entities.PropertyConstraint, value any) (any, error) {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		items = []any{v}
	}

	itemType := p.Items
	if itemType == "" {
		itemType = entities.DataTypeString
	}

	out := make([]any, 0, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		if _, nested := item.([]any); nested {
			return nil, fmt.Errorf("item %d is a nested array", i)
		}
		if _, obj := item.(map[string]any); obj {
			return nil, fmt.Errorf("item %d is an object, expected %s", i, itemType)
		}
		c, err := coerceScalar(itemType, "", item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if err := checkConstraints(p, c); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func coerceScalar(dt entities.DataType, format string, value any) (any, error) {
	switch dt {
	case entities.DataTypeInteger:
		return coerceToInteger(value)
	case entities.DataTypeNumber:
		return coerceToNumber(value)
	case entities.DataTypeBoolean:
		return coerceToBoolean(value)
	case entities.DataTypeDate:
		return coerceToDate(value, format)
	default:
		s, err := coerceToString(value)
		if err != nil {
			return nil, err
		}
		switch format {
		case entities.FormatDate, entities.FormatDateTime:
			return coerceToDate(s, format)
		case entities.FormatEmail:
			if _, err := mail.ParseAddress(s); err != nil {
				return nil, fmt.Errorf("%q is not an email address", s)
			}
		case entities.FormatURI:
			if u, err := url.Parse(s); err != nil || u.Scheme == "" {
				return nil, fmt.Errorf("%q is not an absolute URI", s)
			}
		}
		return s, nil
	}
}

func checkConstraints(p entities.PropertyConstraint, v any) error {
	s, isString := v.(string)
	if len(p.Enum) > 0 {
		str := fmt.Sprint(v)
		if isString {
			str = s
		}
		if !slices.Contains(p.Enum, str) {
			return &enumError{value: str}
		}
	}
	if isString {
		n := utf8.RuneCountInString(s)
		if p.MinLength != nil && n < *p.MinLength {
			return fmt.Errorf("too short (min %d characters)", *p.MinLength)
		}
		if p.MaxLength != nil && n > *p.MaxLength {
			return fmt.Errorf("too long (max %d characters)", *p.MaxLength)
		}
	}
	return nil
}

// enumError marks a value outside a closed list so the validator can attach
// the allowed values to the violation.
type enumError struct {
	value string
}

func (e *enumError) Error() string {
	return fmt.Sprintf("value %q is not one of the allowed values", e.value)
}

func coerceToString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("expected string, got %s", kindOf(value))
	}
}

func coerceToInteger(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %s", kindOf(value))
	}
}

func coerceToNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %s", kindOf(value))
	}
}

func coerceToBoolean(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			return true, nil
		case "false", "no", "n", "0":
			return false, nil
		}
		return false, fmt.Errorf("expected boolean, got %q", v)
	default:
		return false, fmt.Errorf("expected boolean, got %s", kindOf(value))
	}
}

func coerceToDate(value any, format string) (string, error) {
	layout := "2006-01-02"
	if format == entities.FormatDateTime {
		layout = time.RFC3339
	}

	switch v := value.(type) {
	case time.Time:
		return v.Format(layout), nil
	case string:
		trimmed := strings.TrimSpace(v)
		for _, l := range dateLayouts {
			if t, err := time.Parse(l, trimmed); err == nil {
				return t.Format(layout), nil
			}
		}
		return "", fmt.Errorf("expected date, got %q", v)
	default:
		return "", fmt.Errorf("expected date, got %s", kindOf(value))
	}
}

// coerceConfidence reads an LLM confidence score, clamped to [0,1].
// Missing or unreadable scores count as fully confident.
func coerceConfidence(value any) float64 {
	if value == nil {
		return 1.0
	}
	f, err := coerceToNumber(value)
	if err != nil || math.IsNaN(f) {
		return 1.0
	}
	return math.Max(0, math.Min(1, f))
}

func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", value)
	}
}
