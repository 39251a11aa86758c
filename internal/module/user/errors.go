package user

import "errors"

// User module errors.
var (
	ErrUserNotFound = errors.New("user not found")
)
