package project

import "errors"

// Project module errors.
var (
	ErrProjectNotFound = errors.New("project not found")
)
