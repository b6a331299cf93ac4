package schedule

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nerrad567/relay-sequencer/internal/relay"
	"github.com/nerrad567/relay-sequencer/internal/waveform"
)

// ChannelConfig binds one named channel to a board output and a waveform.
type ChannelConfig struct {
	// Name is the operator-facing label, unique within a run.
	Name string

	// Channel is the board output, 1..relay.MaxChannels, unique within a run.
	Channel int

	// Signal is the channel's timing description.
	Signal waveform.Waveform
}

// RunConfig is the validated input to one run.
//
// Channels are held sorted by channel id so iteration order is stable
// regardless of the JSON map order they were parsed from. A RunConfig is
// handed to the engine by value; the engine's copy is unaffected by later
// caller mutation.
type RunConfig struct {
	Description string
	Channels    []ChannelConfig
}

// jsonChannel is the wire shape of one channels entry.
type jsonChannel struct {
	Channel int               `json:"channel"`
	Signal  waveform.Waveform `json:"signal"`
}

// jsonRunConfig is the wire shape of a run configuration document.
type jsonRunConfig struct {
	Description *string                `json:"description"`
	Channels    map[string]jsonChannel `json:"channels"`
}

// Parse decodes and validates a run configuration document.
//
// Validation enforces:
//   - a description entry is present
//   - every channel id is within 1..relay.MaxChannels
//   - no two names share a channel id
//   - every channel carries a signal, and every waveform parses and
//     validates (see package waveform)
//
// A document with no channels is legal and produces an empty run.
//
// Returns ErrInvalidConfig (or a more specific sentinel from this package,
// or waveform.ErrInvalid) describing the first problem found.
func Parse(data []byte) (*RunConfig, error) {
	var raw jsonRunConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if raw.Description == nil {
		return nil, ErrNoDescription
	}

	cfg := &RunConfig{
		Description: *raw.Description,
		Channels:    make([]ChannelConfig, 0, len(raw.Channels)),
	}

	seen := make(map[int]string, len(raw.Channels))
	for name, ch := range raw.Channels {
		if name == "" {
			return nil, fmt.Errorf("%w: channel name must not be empty", ErrInvalidConfig)
		}
		if ch.Channel < 1 || ch.Channel > relay.MaxChannels {
			return nil, fmt.Errorf("%w: %q uses channel %d (must be 1..%d)",
				ErrChannelOutOfRange, name, ch.Channel, relay.MaxChannels)
		}
		if other, dup := seen[ch.Channel]; dup {
			return nil, fmt.Errorf("%w: %d claimed by both %q and %q",
				ErrDuplicateChannel, ch.Channel, other, name)
		}
		seen[ch.Channel] = name

		// An absent signal key never reaches the waveform decoder, so it
		// has to be caught here rather than rely on UnmarshalJSON.
		if ch.Signal.IsZero() {
			return nil, fmt.Errorf("channel %q: %w", name,
				&waveform.ValidationError{Field: "signal", Value: nil, Reason: "is required"})
		}

		cfg.Channels = append(cfg.Channels, ChannelConfig{
			Name:    name,
			Channel: ch.Channel,
			Signal:  ch.Signal,
		})
	}

	// Stable iteration order independent of JSON map randomisation.
	sort.Slice(cfg.Channels, func(i, j int) bool {
		return cfg.Channels[i].Channel < cfg.Channels[j].Channel
	})

	return cfg, nil
}

// MarshalJSON encodes the run configuration back into the document schema
// Parse accepts.
func (c RunConfig) MarshalJSON() ([]byte, error) {
	channels := make(map[string]jsonChannel, len(c.Channels))
	for _, ch := range c.Channels {
		channels[ch.Name] = jsonChannel{Channel: ch.Channel, Signal: ch.Signal}
	}
	return json.Marshal(struct {
		Description string                 `json:"description"`
		Channels    map[string]jsonChannel `json:"channels"`
	}{Description: c.Description, Channels: channels})
}
