// Package waveform defines the recursive timing description for a single
// relay channel and its expansion into absolute switching offsets.
//
// A Waveform is one of two variants:
//
//   - Pulse: hold a state (on/off) for a fixed number of time units.
//   - Sequence: an ordered list of child waveforms repeated a fixed number
//     of cycles.
//
// Sequences nest to arbitrary depth, so a channel's behaviour is a tree of
// pulses. Expand flattens that tree into the ordered (offset, state) pairs
// the schedule compiler merges across channels.
//
// Waveforms are immutable once constructed. Both the constructors and the
// JSON codec validate their inputs; an invalid description never produces a
// partially-built waveform.
//
// # JSON Format
//
// Exactly one of the two shapes:
//
//	{"length": 20, "state": 1}
//	{"sub_signals": [<waveform>, ...], "cycle": 3}
//
// cycle defaults to 1 when omitted.
package waveform
