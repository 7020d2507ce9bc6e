// Package repository defines error values shared across the
// repositories. These sentinels let the service and handler layers
// distinguish failure scenarios without inspecting driver errors.
// ErrNotFound deliberately covers both "no such row" and "row owned
// by someone else" so that responses never leak whether another
// user's task exists.
package repository

import "errors"

// ErrNotFound is returned when a scoped lookup, update or delete
// matches no row. Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering with an email that is
// already taken. Handlers translate this into HTTP 400.
var ErrEmailExists = errors.New("email already exists")
