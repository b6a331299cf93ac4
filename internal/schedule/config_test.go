package schedule

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/relay-sequencer/internal/waveform"
)

const validDoc = `{
	"description": "two channel test",
	"channels": {
		"heater": {"channel": 2, "signal": {"length": 20, "state": 1}},
		"pump": {
			"channel": 1,
			"signal": {
				"sub_signals": [
					{"length": 10, "state": 0},
					{"length": 5, "state": 0}
				],
				"cycle": 3
			}
		}
	}
}`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Description != "two channel test" {
		t.Errorf("description = %q", cfg.Description)
	}
	if len(cfg.Channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(cfg.Channels))
	}

	// Channels come out sorted by channel id regardless of map order.
	if cfg.Channels[0].Name != "pump" || cfg.Channels[0].Channel != 1 {
		t.Errorf("first channel = %+v, want pump on 1", cfg.Channels[0])
	}
	if cfg.Channels[1].Name != "heater" || cfg.Channels[1].Channel != 2 {
		t.Errorf("second channel = %+v, want heater on 2", cfg.Channels[1])
	}
}

func TestParse_NoChannels(t *testing.T) {
	cfg, err := Parse([]byte(`{"description": "idle", "channels": {}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Channels) != 0 {
		t.Errorf("channels = %d, want 0", len(cfg.Channels))
	}
	if events := Build(*cfg); len(events) != 0 {
		t.Errorf("empty run built %d events", len(events))
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "not json",
			doc:     `{`,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "missing description",
			doc:     `{"channels": {}}`,
			wantErr: ErrNoDescription,
		},
		{
			name:    "channel zero",
			doc:     `{"description": "x", "channels": {"a": {"channel": 0, "signal": {"length": 1, "state": 0}}}}`,
			wantErr: ErrChannelOutOfRange,
		},
		{
			name:    "channel nine",
			doc:     `{"description": "x", "channels": {"a": {"channel": 9, "signal": {"length": 1, "state": 0}}}}`,
			wantErr: ErrChannelOutOfRange,
		},
		{
			name: "duplicate channel id",
			doc: `{"description": "x", "channels": {
				"a": {"channel": 3, "signal": {"length": 1, "state": 0}},
				"b": {"channel": 3, "signal": {"length": 2, "state": 1}}
			}}`,
			wantErr: ErrDuplicateChannel,
		},
		{
			name:    "invalid waveform",
			doc:     `{"description": "x", "channels": {"a": {"channel": 1, "signal": {"length": 0, "state": 0}}}}`,
			wantErr: waveform.ErrInvalid,
		},
		{
			name:    "missing signal",
			doc:     `{"description": "x", "channels": {"a": {"channel": 1}}}`,
			wantErr: waveform.ErrInvalid,
		},
		{
			name:    "null signal",
			doc:     `{"description": "x", "channels": {"a": {"channel": 1, "signal": null}}}`,
			wantErr: waveform.ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunConfig_MarshalRoundTrip(t *testing.T) {
	original, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	reparsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}

	if !reflect.DeepEqual(Build(*reparsed), Build(*original)) {
		t.Error("round-trip changed the compiled schedule")
	}
}
