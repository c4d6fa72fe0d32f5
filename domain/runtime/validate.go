package runtime

import (
	"fmt"

	"github.com/rawe/ontoforge-sub000/domain/schema"
	"github.com/rawe/ontoforge-sub000/pkg/apperror"
)

// FieldErrors accumulates per-property validation failures. Checks run
// independently so a single pass reports every offending field.
type FieldErrors map[string]string

// Add records a failure for a field, keeping the first message per key.
func (f FieldErrors) Add(key, message string) {
	if _, exists := f[key]; !exists {
		f[key] = message
	}
}

// Merge copies all entries from other, keeping existing messages.
func (f FieldErrors) Merge(other FieldErrors) {
	for k, v := range other {
		f.Add(k, v)
	}
}

// Err converts the accumulated failures into a validation error, or nil
// when the set is empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return apperror.NewValidation(f)
}

// ValidateCreate validates and coerces a full property set for a create.
// Every declared property is checked: provided values are coerced, missing
// required properties take their schema default or are flagged, and
// undeclared keys are flagged. On create a null value means "not provided".
func ValidateCreate(props map[string]any, defs schema.PropertySet, typeKey string) (map[string]any, FieldErrors) {
	return validateProperties(props, defs, typeKey, false)
}

// ValidateUpdate validates a partial property diff. Only provided keys are
// checked. A null value on an optional property marks it for removal; null
// on a required property is an error. The returned map carries nil values
// for removals.
func ValidateUpdate(props map[string]any, defs schema.PropertySet, typeKey string) (map[string]any, FieldErrors) {
	return validateProperties(props, defs, typeKey, true)
}

func validateProperties(props map[string]any, defs schema.PropertySet, typeKey string, partial bool) (map[string]any, FieldErrors) {
	coerced := make(map[string]any)
	errs := make(FieldErrors)

	// Unknown keys are flagged, never silently dropped
	for key := range props {
		if _, ok := defs.Get(key); !ok {
			errs.Add(key, fmt.Sprintf("Unknown property: not defined in type '%s'", typeKey))
		}
	}

	for _, def := range defs.All() {
		value, provided := props[def.Key]

		switch {
		case provided && value == nil:
			if partial {
				if def.Required {
					errs.Add(def.Key, "Cannot set required property to null")
				} else {
					// Removal marker
					coerced[def.Key] = nil
				}
				continue
			}
			// On create, null means "not provided"
			if def.Required && def.DefaultValue == nil {
				errs.Add(def.Key, "Required property missing")
			} else if def.DefaultValue != nil {
				if v, err := coerceString(*def.DefaultValue, def.DataType, def.Key); err != nil {
					errs.Add(def.Key, err.Error())
				} else {
					coerced[def.Key] = v
				}
			}

		case provided:
			if v, err := Coerce(value, def.DataType, def.Key); err != nil {
				errs.Add(def.Key, err.Error())
			} else {
				coerced[def.Key] = v
			}

		case !partial && def.Required:
			if def.DefaultValue != nil {
				if v, err := coerceString(*def.DefaultValue, def.DataType, def.Key); err != nil {
					errs.Add(def.Key, err.Error())
				} else {
					coerced[def.Key] = v
				}
			} else {
				errs.Add(def.Key, "Required property missing")
			}
		}
	}

	return coerced, errs
}
