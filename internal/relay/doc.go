// Package relay drives the multi-channel relay board over a serial line.
//
// The board speaks a fixed five-byte command frame:
//
//	[0xFF, channel, value, channel+value, 0xEE]
//
// where channel is 1..8 and value is 0 (release) or 1 (energise). The
// fourth byte is a simple additive checksum.
//
// Controller is the only writer to the port; the execution engine owns the
// controller exclusively for the duration of a run. A dry-run controller is
// available for exercising sequences without hardware attached.
package relay
