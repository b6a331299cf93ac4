// Package config loads and validates the relay sequencer's YAML
// configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// RELAYSEQ_* environment variable overrides. Validation runs after all
// layers are applied, so a bad file cannot be patched into validity by a
// missing override.
//
// Run configurations (the JSON documents describing waveforms) are not
// handled here; see package schedule.
package config
