package primitives

import "errors"

// ErrInvalidArgument is returned by constructors when given a
// constructor-argument violation, per spec: fatal to that constructor call
// only, never a panic.
var ErrInvalidArgument = errors.New("primitives: invalid argument")
