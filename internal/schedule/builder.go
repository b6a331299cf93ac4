package schedule

import "sort"

// Event is one switching instruction in the merged queue: set Channel to
// State at Timestamp time units after run start. Events carry the channel
// name purely for logging and telemetry.
//
// Events are ephemeral; the queue is rebuilt from the RunConfig for every
// run and discarded when the run terminates.
type Event struct {
	Timestamp int
	Channel   int
	State     int
	Name      string
}

// Build compiles a run configuration into the globally ordered event queue.
//
// Every channel's waveform expands from offset zero; the resulting steps
// are tagged with the channel id and name and merged into one slice sorted
// by timestamp ascending. Ties break by channel id ascending, then by the
// channel's own emission order, so identical input always produces
// identical ordering.
//
// A config with no channels returns an empty (nil) queue; that is a legal
// run that switches nothing.
func Build(cfg RunConfig) []Event {
	var events []Event
	for _, ch := range cfg.Channels {
		for _, step := range ch.Signal.Expand(0) {
			events = append(events, Event{
				Timestamp: step.Offset,
				Channel:   ch.Channel,
				State:     step.State,
				Name:      ch.Name,
			})
		}
	}

	// Channels were appended in ascending channel order and each channel's
	// steps in emission order, so a stable sort on timestamp alone
	// preserves the documented tie-break.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	return events
}

// Span returns the timestamp of the last event in the queue, or 0 for an
// empty queue. This is the run's total duration in time units.
func Span(events []Event) int {
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].Timestamp
}
