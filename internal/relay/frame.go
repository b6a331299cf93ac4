package relay

import "fmt"

// MaxChannels is the number of channels on the relay board.
const MaxChannels = 8

// Command frame layout.
const (
	frameStart = 0xFF
	frameEnd   = 0xEE
	frameSize  = 5
)

// encodeFrame builds the five-byte command frame for a switch command.
//
// Callers must validate channel and value first; encodeFrame assumes both
// fit in a byte.
func encodeFrame(channel, value int) [frameSize]byte {
	return [frameSize]byte{
		frameStart,
		byte(channel),
		byte(value),
		byte(channel + value), // additive checksum
		frameEnd,
	}
}

// validateCommand checks a (channel, value) pair against the board limits.
func validateCommand(channel, value int) error {
	if channel < 1 || channel > MaxChannels {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidChannel, channel, MaxChannels)
	}
	if value != 0 && value != 1 {
		return fmt.Errorf("%w: %d (must be 0 or 1)", ErrInvalidValue, value)
	}
	return nil
}
