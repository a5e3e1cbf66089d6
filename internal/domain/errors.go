package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrItemNotFound  = errors.New("cart item not found")
	ErrInvalidParams = errors.New("invalid params")
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrNoUser        = errors.New("no signed-in user")
)
