// Package repository implements persistence over database/sql. Sentinel
// errors defined here let handlers translate failures into transport
// outcomes without inspecting driver-specific error text.
package repository

import "errors"

// ErrUsernameExists is returned by UserRepo.Create when the username is
// already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned by UserRepo.Create when the email is already
// taken.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyVoted is returned when a user votes twice on one suggestion.
var ErrAlreadyVoted = errors.New("already voted")
