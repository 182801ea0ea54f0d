package access

import "errors"

var (
	ErrNilAccess              = errors.New("entity component access is nil")
	ErrUnknownPreferredAccess = errors.New("unknown preferred access")
)
