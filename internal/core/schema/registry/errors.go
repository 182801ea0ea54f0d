package registry

import "errors"

var (
	// Type validation errors

	ErrNilComponentType      = errors.New("component type is nil")
	ErrInvalidComponentType  = errors.New("invalid component type")
	ErrComponentTypeMismatch = errors.New("component value does not match component type")
	ErrUnknownComponentType  = errors.New("unknown component type")
	ErrComponentTypeConflict = errors.New("component type conflicts with a registered type")
)
