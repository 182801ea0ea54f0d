package store

import "errors"

var (
	// Missing argument errors

	ErrNilStore  = errors.New("timeline store is nil")
	ErrNilEntity = errors.New("entity is nil")
)
