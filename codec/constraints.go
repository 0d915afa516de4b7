package codec

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// ConstraintSource supplies the constraints and validators of a type.
type ConstraintSource interface {
	ConstraintsOf(t *descriptor.Type) *descriptor.Constraints
	ValidatorsOf(t *descriptor.Type) []descriptor.Validator
}

// DescriptorConstraints reads constraints and validators from the descriptor.
type DescriptorConstraints struct{}

func (DescriptorConstraints) ConstraintsOf(t *descriptor.Type) *descriptor.Constraints {
	return t.Constraints
}

func (DescriptorConstraints) ValidatorsOf(t *descriptor.Type) []descriptor.Validator {
	return t.Validators
}

// validatedMethod runs constraints and validators after its base method.
type validatedMethod struct {
	base        Method
	constraints *descriptor.Constraints
	validators  []descriptor.Validator
}

func (m *validatedMethod) Kind() MethodKind { return MethodValidated }

func (m *validatedMethod) convert(v any) (any, error) {
	out, err := m.base.convert(v)
	if err != nil {
		return nil, err
	}
	verr := checkConstraints(m.constraints, out)
	verr = errors.Merge(verr, runValidators(m.validators, out))
	if !verr.Empty() {
		return nil, verr
	}
	return out, nil
}

// validated wraps base unless there is nothing to check.
func validated(base Method, cs *descriptor.Constraints, vs []descriptor.Validator) Method {
	if cs.Empty() && len(vs) == 0 {
		return base
	}
	return &validatedMethod{base: base, constraints: cs, validators: vs}
}

func runValidators(vs []descriptor.Validator, v any) *errors.ValidationError {
	var verr *errors.ValidationError
	for _, val := range vs {
		if val.Func == nil {
			continue
		}
		verr = errors.Merge(verr, validatorError(val.Func(v)))
	}
	return verr
}

func validatorError(err error) *errors.ValidationError {
	if err == nil {
		return nil
	}
	if verr, ok := errors.AsValidation(err); ok {
		return verr
	}
	return errors.Invalid(err.Error())
}

// checkConstraints reports every failing constraint of v.
func checkConstraints(cs *descriptor.Constraints, v any) *errors.ValidationError {
	if cs.Empty() {
		return nil
	}
	var msgs []string
	fail := func(format string, args ...any) {
		msgs = append(msgs, fmt.Sprintf(format, args...))
	}

	rv := reflect.ValueOf(deref(v))
	if !rv.IsValid() {
		return nil
	}

	if f, ok := toFloat64(rv.Interface()); ok && isNumberKind(rv.Kind()) {
		if cs.Minimum != nil && f < *cs.Minimum {
			fail("less than %s (minimum)", formatNumber(*cs.Minimum))
		}
		if cs.Maximum != nil && f > *cs.Maximum {
			fail("greater than %s (maximum)", formatNumber(*cs.Maximum))
		}
		if cs.ExclusiveMinimum != nil && f <= *cs.ExclusiveMinimum {
			fail("less than or equal to %s (exclusiveMinimum)", formatNumber(*cs.ExclusiveMinimum))
		}
		if cs.ExclusiveMaximum != nil && f >= *cs.ExclusiveMaximum {
			fail("greater than or equal to %s (exclusiveMaximum)", formatNumber(*cs.ExclusiveMaximum))
		}
		if cs.MultipleOf != nil && *cs.MultipleOf != 0 {
			if q := f / *cs.MultipleOf; math.Abs(q-math.Round(q)) > 1e-9 {
				fail("not a multiple of %s (multipleOf)", formatNumber(*cs.MultipleOf))
			}
		}
	}

	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		n := utf8.RuneCountInString(s)
		if cs.MinLength != nil && n < *cs.MinLength {
			fail("string length lower than %d (minLength)", *cs.MinLength)
		}
		if cs.MaxLength != nil && n > *cs.MaxLength {
			fail("string length greater than %d (maxLength)", *cs.MaxLength)
		}
		if cs.Pattern != nil && !cs.Pattern.MatchString(s) {
			fail("not matching pattern %s (pattern)", cs.Pattern)
		}
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		if cs.MinItems != nil && n < *cs.MinItems {
			fail("item count lower than %d (minItems)", *cs.MinItems)
		}
		if cs.MaxItems != nil && n > *cs.MaxItems {
			fail("item count greater than %d (maxItems)", *cs.MaxItems)
		}
		if cs.UniqueItems && hasDuplicates(rv) {
			fail("duplicate items (uniqueItems)")
		}
	case reflect.Map:
		n := rv.Len()
		if cs.MinProperties != nil && n < *cs.MinProperties {
			fail("property count lower than %d (minProperties)", *cs.MinProperties)
		}
		if cs.MaxProperties != nil && n > *cs.MaxProperties {
			fail("property count greater than %d (maxProperties)", *cs.MaxProperties)
		}
	}

	if len(msgs) == 0 {
		return nil
	}
	return errors.Invalid(msgs...)
}

// hasDuplicates compares items like treeEqual. Items that can be map keys
// are hashed, numbers by value; the others are compared pairwise.
func hasDuplicates(rv reflect.Value) bool {
	n := rv.Len()
	seen := make(map[any]struct{}, n)
	for i := range n {
		item := rv.Index(i).Interface()
		key := item
		if f, ok := toFloat64(item); ok {
			key = f
		}
		if key != nil && reflect.ValueOf(key).Comparable() {
			if _, dup := seen[key]; dup {
				return true
			}
			seen[key] = struct{}{}
			continue
		}
		for j := range i {
			if treeEqual(item, rv.Index(j).Interface()) {
				return true
			}
		}
	}
	return false
}
