package models

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrFetch        = errors.New("fetch error")
	ErrNotFound     = errors.New("not found")
	ErrDecode       = errors.New("decode error")
	ErrEncode       = errors.New("encode error")
	ErrUpload       = errors.New("upload error")
	ErrPlaceholder  = errors.New("placeholder error")
	ErrPersist      = errors.New("persist error")
	ErrUnauthorized = errors.New("unauthorized")
)
