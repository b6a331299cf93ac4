package engine

import "errors"

// Domain errors for the engine package. Check with errors.Is().
var (
	// ErrAlreadyRunning is returned by Start while a run is active.
	// The engine never races two runs against the same relay board;
	// stop the active run first.
	ErrAlreadyRunning = errors.New("engine: run already active")

	// ErrInitFailed is returned by Start when the relay sink cannot be
	// initialised. The engine stays Idle and no events were dispatched.
	ErrInitFailed = errors.New("engine: sink initialisation failed")
)
