package mqtt

import "fmt"

// Topic prefixes for the parkrunner topic tree.
//
// Hardware bridges use the flat scheme: parkrunner/{category}/{bridge}/{address}
const (
	// TopicPrefix is the root of every parkrunner topic.
	TopicPrefix = "parkrunner"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "parkrunner/system"

	// TopicPrefixCommand is the base for commands addressed to the core.
	TopicPrefixCommand = "parkrunner/command"
)

// Topics provides builders for parkrunner MQTT topics.
// Using these helpers keeps topic naming consistent between the core,
// the hardware bridge and dashboards.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.BridgeState("ev3", "colour/left")
//	// Returns: "parkrunner/state/ev3/colour/left"
type Topics struct{}

// =============================================================================
// Bridge Topics
// =============================================================================

// BridgeState returns the topic a bridge publishes hardware state on.
//
// Example: parkrunner/state/ev3/colour/left
func (Topics) BridgeState(bridge, address string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, bridge, address)
}

// BridgeRequest returns the topic for a request to a bridge.
//
// Example: parkrunner/request/ev3/5f0c...
func (Topics) BridgeRequest(bridge, requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefix, bridge, requestID)
}

// BridgeResponse returns the topic a bridge answers a request on.
//
// Example: parkrunner/response/ev3/5f0c...
func (Topics) BridgeResponse(bridge, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefix, bridge, requestID)
}

// BridgeStatus returns the bridge's online/offline (LWT) topic.
//
// Example: parkrunner/bridge/ev3/status
func (Topics) BridgeStatus(bridge string) string {
	return fmt.Sprintf("%s/bridge/%s/status", TopicPrefix, bridge)
}

// =============================================================================
// Core Topics
// =============================================================================

// Events returns the topic every accepted navigation event is published on.
func (Topics) Events() string {
	return TopicPrefix + "/events"
}

// Actions returns the topic every dispatched action is published on.
func (Topics) Actions() string {
	return TopicPrefix + "/actions"
}

// Status returns the retained controller status topic.
func (Topics) Status() string {
	return TopicPrefix + "/status"
}

// SteeringTune returns the live gain tuning command topic.
//
// Example payload: {"term":"p","steps":1}
func (Topics) SteeringTune() string {
	return TopicPrefixCommand + "/steering/tune"
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the core's online/offline topic.
//
// Example: parkrunner/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllBridgeStates returns a pattern matching every state topic of one bridge.
//
// Pattern: parkrunner/state/ev3/#
func (Topics) AllBridgeStates(bridge string) string {
	return fmt.Sprintf("%s/state/%s/#", TopicPrefix, bridge)
}

// AllBridgeResponses returns a pattern matching every response of one bridge.
//
// Pattern: parkrunner/response/ev3/+
func (Topics) AllBridgeResponses(bridge string) string {
	return fmt.Sprintf("%s/response/%s/+", TopicPrefix, bridge)
}

// AllTopics returns a pattern matching all parkrunner topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: parkrunner/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
