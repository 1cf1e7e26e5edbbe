package supervisor

import "errors"

var (
	// ErrMissingField reports a launch configuration lacking a required value.
	ErrMissingField = errors.New("missing required field")
	// ErrNotFound reports a configured executable that does not exist.
	ErrNotFound = errors.New("executable not found")
	// ErrLaunchFailed reports that the OS refused to start the game.
	ErrLaunchFailed = errors.New("launch failed")
	// ErrClientUnreachable reports that neither the client binary nor the
	// URI handler could be invoked. It is always paired with ErrLaunchFailed.
	ErrClientUnreachable = errors.New("distribution client unreachable")
)
