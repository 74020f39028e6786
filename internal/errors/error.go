package errors

import "errors"

var (
	ErrCacheMissReadOnly = errors.New("katago was opened in non-calc mode, refusing a new calculation")
	ErrMalformedResponse = errors.New("malformed katago response")
	ErrOracleClosed      = errors.New("katago process is not running")
	ErrBadStone          = errors.New("bad stone notation")
	ErrNotFound          = errors.New("not found")
)
