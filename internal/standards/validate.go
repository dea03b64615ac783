package standards

import (
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
)

// Validate checks an entry of the step against its field table. Fields
// not in the table are ignored.
func (st *Step) Validate(data map[string]interface{}) error {
	var details []string
	for _, f := range st.Fields {
		v, ok := data[f.Name]
		if !ok || v == nil || v == "" {
			if f.Required {
				details = append(details, fmt.Sprintf("%s is required", f.Name))
			}
			continue
		}
		if msg := f.check(v); msg != "" {
			details = append(details, msg)
		}
	}
	if len(details) > 0 {
		return apperrors.Invalid(details)
	}
	return nil
}

func (f *Field) check(v interface{}) string {
	switch f.Type {
	case TypeInteger, TypeFloat:
		n, ok := ToFloat(v)
		if !ok {
			return fmt.Sprintf("%s must be a number", f.Name)
		}
		if f.Type == TypeInteger && n != math.Trunc(n) {
			return fmt.Sprintf("%s must be a whole number", f.Name)
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Sprintf("%s must be >= %v", f.Name, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Sprintf("%s must be <= %v", f.Name, *f.Max)
		}
	case TypeText, TypeTextarea:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", f.Name)
		}
		length := float64(utf8.RuneCountInString(s))
		if f.Min != nil && length < *f.Min {
			return fmt.Sprintf("%s must be at least %v characters", f.Name, *f.Min)
		}
		if f.Max != nil && length > *f.Max {
			return fmt.Sprintf("%s must be at most %v characters", f.Name, *f.Max)
		}
	case TypeSelect:
		s, ok := v.(string)
		if !ok || !f.hasChoice(s) {
			return fmt.Sprintf("%s must be one of %v", f.Name, f.Choices)
		}
	case TypeMultiselect:
		values, ok := v.([]interface{})
		if !ok {
			if strs, isStrings := v.([]string); isStrings {
				for _, s := range strs {
					values = append(values, s)
				}
				ok = true
			}
		}
		if !ok {
			return fmt.Sprintf("%s must be a list", f.Name)
		}
		for _, item := range values {
			s, isString := item.(string)
			if !isString || !f.hasChoice(s) {
				return fmt.Sprintf("%s values must be in %v", f.Name, f.Choices)
			}
		}
	}
	return ""
}

func (f *Field) hasChoice(s string) bool {
	for _, c := range f.Choices {
		if c == s {
			return true
		}
	}
	return false
}

// ToFloat converts the numeric forms found in decoded JSON into a float64
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
