package services

import "errors"

var (
	// ErrInvalidTransition means the requested stage is not a legal successor.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrTerminalStage means the match is completed or declined.
	ErrTerminalStage = errors.New("match is in a terminal stage")
	// ErrUnauthorized means the actor may not perform this action on the match.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the match or conversation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable wraps persistence failures; callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrVersionConflict is returned by a repository when a conditional write
	// lost against a concurrent writer.
	ErrVersionConflict = errors.New("version conflict")
	// ErrInvalidStage means the requested stage is not in the stage table.
	ErrInvalidStage = errors.New("unknown stage")
	// ErrInvalidArgument means a request field is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
)
