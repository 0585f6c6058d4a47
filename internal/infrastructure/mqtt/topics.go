package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes of the motion service.
//
// All topics use the flat scheme: motion/{category}/{name}
const (
	// TopicPrefix is the root of every motion topic.
	TopicPrefix = "motion"

	// TopicPrefixSystem is the base for service status topics.
	TopicPrefixSystem = "motion/system"
)

// Topics provides builders for motion MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Command("navigate") // "motion/command/navigate"
type Topics struct{}

// Command returns the inbound topic for one coordinator action.
//
// Example: motion/command/highlight
func (Topics) Command(action string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, action)
}

// Result returns the topic command outcomes are published on.
//
// Example: motion/result
func (Topics) Result() string {
	return TopicPrefix + "/result"
}

// Event returns the topic for one queue lifecycle event type.
//
// Example: motion/event/completed
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, eventType)
}

// Mutation returns the topic a stage element's property writes are mirrored to.
//
// Example: motion/mutation/tile-3
func (Topics) Mutation(handle string) string {
	return fmt.Sprintf("%s/mutation/%s", TopicPrefix, handle)
}

// Performance returns the topic for frame rate samples.
//
// Example: motion/performance
func (Topics) Performance() string {
	return TopicPrefix + "/performance"
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: motion/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllCommands matches every inbound command.
//
// Pattern: motion/command/+
func (Topics) AllCommands() string {
	return TopicPrefix + "/command/+"
}

// AllEvents matches every lifecycle event.
//
// Pattern: motion/event/+
func (Topics) AllEvents() string {
	return TopicPrefix + "/event/+"
}

// AllMutations matches every mirrored stage write.
//
// Pattern: motion/mutation/+
func (Topics) AllMutations() string {
	return TopicPrefix + "/mutation/+"
}

// AllTopics matches all motion traffic.
//
// Pattern: motion/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// CommandAction extracts the action from a command topic.
// It reports false for topics outside motion/command/.
func CommandAction(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, TopicPrefix+"/command/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
