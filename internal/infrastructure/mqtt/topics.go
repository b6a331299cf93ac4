package mqtt

import "fmt"

// Topic prefixes for the sequencer's MQTT surface.
//
// All topics live under the flat scheme: relayseq/{category}/{name}
const (
	// TopicPrefix is the base for all sequencer topics.
	TopicPrefix = "relayseq"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "relayseq/system"

	// TopicPrefixRun is the base for run lifecycle topics.
	TopicPrefixRun = "relayseq/run"
)

// Topics provides builders for sequencer MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.RunStatus()
//	// Returns: "relayseq/run/status"
type Topics struct{}

// SystemStatus returns the service online/offline status topic.
// Published retained, and used as the LWT topic.
//
// Example: relayseq/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// RunStatus returns the topic carrying the engine status snapshot.
// Published retained so new subscribers see the current state immediately.
//
// Example: relayseq/run/status
func (Topics) RunStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixRun)
}

// RunEvent returns the topic for individual relay switch events.
// Not retained; one message per dispatched event.
//
// Example: relayseq/run/event
func (Topics) RunEvent() string {
	return fmt.Sprintf("%s/event", TopicPrefixRun)
}

// RunResult returns the topic for run termination notifications.
//
// Example: relayseq/run/result
func (Topics) RunResult() string {
	return fmt.Sprintf("%s/result", TopicPrefixRun)
}

// RunCommand returns the topic the sequencer listens on for start/stop
// commands.
//
// Example: relayseq/run/command
func (Topics) RunCommand() string {
	return fmt.Sprintf("%s/command", TopicPrefixRun)
}

// AllTopics returns a pattern matching every sequencer topic.
// Use with caution - this receives ALL traffic.
//
// Pattern: relayseq/#
func (Topics) AllTopics() string {
	return "relayseq/#"
}
