package runtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rawe/ontoforge-sub000/domain/schema"
)

// Layouts accepted for datetime values. Naive timestamps (no offset) are
// interpreted as UTC.
var datetimeLayouts = []struct {
	layout string
	naive  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02 15:04:05.999999999", true},
	{"2006-01-02", true},
}

// typeName names a decoded JSON value for error messages.
func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, int, int64, float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// Coerce converts a decoded JSON value to the canonical stored form for the
// given data type: string, int64, float64, bool, or an ISO string for
// date/datetime. Failures are returned as errors for the caller to
// accumulate, never panicked.
func Coerce(value any, dataType schema.DataType, key string) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch dataType {
	case schema.TypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("Expected string for '%s', got %s", key, typeName(value))

	case schema.TypeInteger:
		switch v := value.(type) {
		case bool:
			return nil, fmt.Errorf("Expected integer for '%s', got boolean", key)
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, nil
			}
			return nil, fmt.Errorf("Expected integer for '%s', got '%s'", key, v.String())
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
			return nil, fmt.Errorf("Expected integer for '%s', got '%v'", key, v)
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, nil
			}
			return nil, fmt.Errorf("Expected integer for '%s', got '%s'", key, v)
		default:
			return nil, fmt.Errorf("Expected integer for '%s', got %s", key, typeName(value))
		}

	case schema.TypeFloat:
		switch v := value.(type) {
		case bool:
			return nil, fmt.Errorf("Expected float for '%s', got boolean", key)
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, nil
			}
			return nil, fmt.Errorf("Expected float for '%s', got '%s'", key, v.String())
		case float64:
			return v, nil
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, nil
			}
			return nil, fmt.Errorf("Expected float for '%s', got '%s'", key, v)
		default:
			return nil, fmt.Errorf("Expected float for '%s', got %s", key, typeName(value))
		}

	case schema.TypeBoolean:
		// Native booleans only. "true"/"0" style strings are rejected to
		// avoid truthiness ambiguity.
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("Expected boolean for '%s', got %s", key, typeName(value))

	case schema.TypeDate:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("Expected ISO date string for '%s', got %s", key, typeName(value))
		}
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, fmt.Errorf("Expected ISO date for '%s', got '%s'", key, s)
		}
		return t.Format(time.DateOnly), nil

	case schema.TypeDatetime:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("Expected ISO datetime string for '%s', got %s", key, typeName(value))
		}
		for _, l := range datetimeLayouts {
			t, err := time.Parse(l.layout, s)
			if err != nil {
				continue
			}
			if l.naive {
				t = t.UTC()
			}
			return t.Format(time.RFC3339Nano), nil
		}
		return nil, fmt.Errorf("Expected ISO datetime for '%s', got '%s'", key, s)

	default:
		return nil, fmt.Errorf("Unknown data type '%s' for '%s'", dataType, key)
	}
}

// coerceString coerces a value that arrives as text, such as a filter query
// parameter or a schema default. Text carries no JSON types, so
// "true"/"false" are accepted for booleans here.
func coerceString(raw string, dataType schema.DataType, key string) (any, error) {
	if dataType == schema.TypeBoolean {
		switch strings.ToLower(raw) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, fmt.Errorf("Expected boolean for '%s', got '%s'", key, raw)
		}
	}
	return Coerce(raw, dataType, key)
}
