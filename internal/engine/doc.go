// Package engine replays compiled relay schedules in real time.
//
// The engine is a three-state machine:
//
//	Idle ──Start──▶ Running ──completion──▶ Idle
//	                   │
//	                 Stop
//	                   ▼
//	               Stopping ──▶ Idle
//
// One run is active at a time; Start while Running is rejected. Each run
// owns its relay sink exclusively: the control surface (HTTP, MQTT, signal
// handlers) only ever calls Start and Stop, never the sink.
//
// Time is cooperative, not hard real time. Between events the run goroutine
// parks on a timer; a Stop request wakes it early through the run's cancel
// channel, so cancellation latency is bounded by one dispatch batch plus
// the remainder of the current wait. Events sharing a timestamp are
// dispatched as one batch before the next wait begins.
//
// Sink write failures mid-run do not abort the run; they are collected on
// the run result and delivered through the completion callback, since the
// Start caller is long gone by then.
package engine
