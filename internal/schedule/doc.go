// Package schedule turns a validated run configuration into the single
// globally time-ordered event queue the execution engine replays.
//
// A RunConfig names a set of channels, each carrying a waveform. Build
// expands every channel's waveform from offset zero, tags the resulting
// steps with the channel's id and name, and merges them into one queue
// sorted by timestamp. The sort is deterministic: ties break by channel id
// ascending, then by the channel's own emission order, so recompiling the
// same configuration always yields byte-identical ordering.
//
// RunConfigs parse from the JSON schema the original controller used:
//
//	{
//	  "description": "...",
//	  "channels": {
//	    "<name>": {"channel": 1, "signal": {<waveform>}},
//	    ...
//	  }
//	}
package schedule
