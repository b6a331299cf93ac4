package schedule

import "errors"

// Domain errors for the schedule package. Check with errors.Is().
var (
	// ErrInvalidConfig is returned when a run configuration fails validation.
	ErrInvalidConfig = errors.New("schedule: invalid run config")

	// ErrNoDescription is returned when the description entry is missing.
	ErrNoDescription = errors.New("schedule: description is required")

	// ErrChannelOutOfRange is returned when a channel id is outside 1..MaxChannels.
	ErrChannelOutOfRange = errors.New("schedule: channel out of range")

	// ErrDuplicateChannel is returned when two names map to the same channel id.
	ErrDuplicateChannel = errors.New("schedule: duplicate channel")
)
