package services

import "errors"

var (
	// ErrNotFound is returned when a referenced task, worker or assignment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDependencyCycle is returned when a task's dependency chain loops back to itself.
	ErrDependencyCycle = errors.New("task dependency cycle")
	// ErrInvalidTransition is returned for a status change the review flow does not allow.
	ErrInvalidTransition = errors.New("invalid assignment status transition")
	// ErrRemoteUnavailable is returned when the remote strategy is requested but not configured.
	ErrRemoteUnavailable = errors.New("remote scheduler not configured")
)
