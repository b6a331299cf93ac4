package relay

import "errors"

// Domain errors for the relay package. Check with errors.Is().
var (
	// ErrInvalidChannel is returned when a channel id is outside 1..MaxChannels.
	// Under correct schedule validation this is unreachable; seeing it at
	// runtime indicates a compiler or validation defect upstream.
	ErrInvalidChannel = errors.New("relay: invalid channel")

	// ErrInvalidValue is returned when a switch value is not 0 or 1.
	ErrInvalidValue = errors.New("relay: invalid value")

	// ErrOpenFailed is returned when the serial port cannot be opened.
	ErrOpenFailed = errors.New("relay: open failed")

	// ErrWriteFailed is returned when a command frame cannot be written.
	ErrWriteFailed = errors.New("relay: write failed")

	// ErrClosed is returned when commanding a closed controller.
	ErrClosed = errors.New("relay: controller closed")
)
