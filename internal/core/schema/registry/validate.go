package registry

import (
	"fmt"
	"reflect"
)

// IsValidType reports whether t may be used as a component type.
func IsValidType(t reflect.Type) bool {
	return ValidateType(t) == nil
}

// ValidateType checks that t is a plain value type. Pointers, maps, channels,
// functions, slices and interfaces carry identity or shared state and are
// rejected.
func ValidateType(t reflect.Type) error {
	if t == nil {
		return ErrNilComponentType
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Slice, reflect.Interface, reflect.Invalid:
		return fmt.Errorf("%w: %s is a %s, not a value type", ErrInvalidComponentType, t, t.Kind())
	}
	return nil
}

// ValidateValue checks that v can be stored under ct. A nil value is accepted
// and means "remove the component".
func ValidateValue(ct *ComponentType, v any) error {
	if ct == nil {
		return ErrNilComponentType
	}
	if v == nil || ct.Accepts(v) {
		return nil
	}
	return fmt.Errorf("%w: got %T, want %s", ErrComponentTypeMismatch, v, ct.name)
}
