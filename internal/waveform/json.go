package waveform

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonWaveform is the wire shape for both variants. Pointer fields
// distinguish "absent" from "zero" so validation can report missing fields
// accurately.
type jsonWaveform struct {
	Length     *int              `json:"length,omitempty"`
	State      *int              `json:"state,omitempty"`
	SubSignals []json.RawMessage `json:"sub_signals,omitempty"`
	Cycle      *int              `json:"cycle,omitempty"`
}

// UnmarshalJSON decodes a waveform from its JSON description.
//
// The document must match exactly one of the two variants: a pulse with
// "length" and "state", or a sequence with "sub_signals" and an optional
// "cycle" (default 1). Mixing fields from both variants is rejected, as is
// any value failing construction validation.
func (w *Waveform) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw jsonWaveform
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	isPulse := raw.Length != nil || raw.State != nil
	isSequence := raw.SubSignals != nil || raw.Cycle != nil

	switch {
	case isPulse && isSequence:
		return invalidf("waveform", string(data), "mixes pulse and sequence fields")
	case isPulse:
		return w.unmarshalPulse(raw)
	case isSequence:
		return w.unmarshalSequence(raw)
	default:
		return invalidf("waveform", string(data), "needs either length/state or sub_signals")
	}
}

func (w *Waveform) unmarshalPulse(raw jsonWaveform) error {
	if raw.Length == nil {
		return invalidf("length", nil, "is required for a pulse")
	}
	if raw.State == nil {
		return invalidf("state", nil, "is required for a pulse")
	}
	parsed, err := NewPulse(*raw.Length, *raw.State)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func (w *Waveform) unmarshalSequence(raw jsonWaveform) error {
	if len(raw.SubSignals) == 0 {
		return invalidf("sub_signals", nil, "must be a non-empty array")
	}

	children := make([]Waveform, len(raw.SubSignals))
	for i, sub := range raw.SubSignals {
		if err := children[i].UnmarshalJSON(sub); err != nil {
			return fmt.Errorf("sub_signals[%d]: %w", i, err)
		}
	}

	cycle := 1
	if raw.Cycle != nil {
		cycle = *raw.Cycle
	}

	parsed, err := NewSequence(children, cycle)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// MarshalJSON encodes the waveform back into the same schema UnmarshalJSON
// accepts, so parse(serialize(w)) round-trips.
func (w Waveform) MarshalJSON() ([]byte, error) {
	switch w.kind {
	case kindPulse:
		return json.Marshal(map[string]int{
			"length": w.length,
			"state":  w.state,
		})
	case kindSequence:
		subs := make([]json.RawMessage, len(w.children))
		for i, c := range w.children {
			encoded, err := c.MarshalJSON()
			if err != nil {
				return nil, err
			}
			subs[i] = encoded
		}
		return json.Marshal(struct {
			SubSignals []json.RawMessage `json:"sub_signals"`
			Cycle      int               `json:"cycle"`
		}{SubSignals: subs, Cycle: w.cycle})
	default:
		return nil, fmt.Errorf("%w: cannot marshal uninitialised waveform", ErrInvalid)
	}
}
