package runtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rawe/ontoforge-sub000/domain/schema"
	"github.com/rawe/ontoforge-sub000/pkg/apperror"
)

// FilterOp identifies a filter comparison operator.
type FilterOp string

const (
	FilterEq       FilterOp = "eq"
	FilterGt       FilterOp = "gt"
	FilterGte      FilterOp = "gte"
	FilterLt       FilterOp = "lt"
	FilterLte      FilterOp = "lte"
	FilterContains FilterOp = "contains"
)

// filterParamPrefix marks filter expressions in query parameters.
const filterParamPrefix = "filter."

// Predicate is a storage-agnostic filter descriptor: a declared property,
// an operator, and a value already coerced to the property's runtime type.
type Predicate struct {
	Key      string
	Op       FilterOp
	DataType schema.DataType
	Value    any
}

// ParseFilterParams extracts filter.{key} and filter.{key}__{op}
// expressions from query parameters.
func ParseFilterParams(params url.Values) map[string]string {
	filters := make(map[string]string)
	for name := range params {
		if strings.HasPrefix(name, filterParamPrefix) {
			filters[strings.TrimPrefix(name, filterParamPrefix)] = params.Get(name)
		}
	}
	return filters
}

// CompileFilters parses filter expressions into ordered predicate
// descriptors. Keys not declared on the type are rejected rather than
// silently ignored. Output order is deterministic (sorted by expression).
func CompileFilters(filters map[string]string, defs schema.PropertySet, typeKey string) ([]Predicate, error) {
	exprs := make([]string, 0, len(filters))
	for expr := range filters {
		exprs = append(exprs, expr)
	}
	sort.Strings(exprs)

	predicates := make([]Predicate, 0, len(exprs))
	for _, expr := range exprs {
		rawValue := filters[expr]

		propKey := expr
		opName := ""
		if i := strings.LastIndex(expr, "__"); i >= 0 {
			propKey = expr[:i]
			opName = expr[i+2:]
		}

		def, ok := defs.Get(propKey)
		if !ok {
			return nil, apperror.NewValidation(map[string]string{
				propKey: fmt.Sprintf("Not defined in type '%s'", typeKey),
			}).WithMessage(fmt.Sprintf("Unknown filter property: '%s'", propKey))
		}

		op := FilterEq
		switch opName {
		case "":
		case "gt":
			op = FilterGt
		case "gte":
			op = FilterGte
		case "lt":
			op = FilterLt
		case "lte":
			op = FilterLte
		case "contains":
			op = FilterContains
		default:
			return nil, apperror.NewValidation(map[string]string{
				expr: fmt.Sprintf("Unsupported operator '%s'", opName),
			}).WithMessage(fmt.Sprintf("Unknown filter operator: '%s'", opName))
		}

		var value any
		if op == FilterContains {
			value = rawValue
		} else {
			coercedValue, err := coerceString(rawValue, def.DataType, propKey)
			if err != nil {
				return nil, apperror.NewValidation(map[string]string{
					propKey: err.Error(),
				}).WithMessage(fmt.Sprintf("Invalid filter value for '%s'", propKey))
			}
			value = coercedValue
		}

		predicates = append(predicates, Predicate{
			Key:      propKey,
			Op:       op,
			DataType: def.DataType,
			Value:    value,
		})
	}

	return predicates, nil
}

// Matches evaluates the predicate against a stored property bag. Used for
// post-hoc filtering of overfetched similarity candidates.
func (p Predicate) Matches(props map[string]any) bool {
	raw, ok := props[p.Key]
	if !ok || raw == nil {
		return false
	}

	if p.Op == FilterContains {
		needle, _ := p.Value.(string)
		return strings.Contains(strings.ToLower(stringValue(raw)), strings.ToLower(needle))
	}

	switch p.DataType {
	case schema.TypeInteger, schema.TypeFloat:
		a, okA := floatValue(raw)
		b, okB := floatValue(p.Value)
		if !okA || !okB {
			return false
		}
		return compareFloat(p.Op, a, b)

	case schema.TypeBoolean:
		a, okA := raw.(bool)
		b, okB := p.Value.(bool)
		if !okA || !okB || p.Op != FilterEq {
			return false
		}
		return a == b

	default:
		// string, date, datetime: ISO text ordering is temporal ordering
		b, ok := p.Value.(string)
		if !ok {
			return false
		}
		return compareString(p.Op, stringValue(raw), b)
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func compareFloat(op FilterOp, a, b float64) bool {
	switch op {
	case FilterEq:
		return a == b
	case FilterGt:
		return a > b
	case FilterGte:
		return a >= b
	case FilterLt:
		return a < b
	case FilterLte:
		return a <= b
	default:
		return false
	}
}

func compareString(op FilterOp, a, b string) bool {
	switch op {
	case FilterEq:
		return a == b
	case FilterGt:
		return a > b
	case FilterGte:
		return a >= b
	case FilterLt:
		return a < b
	case FilterLte:
		return a <= b
	default:
		return false
	}
}
