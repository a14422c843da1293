package mqtt

import "strings"

// Topic roots.
const (
	TopicPrefixAudio  = "graylogic/audio"
	TopicPrefixSystem = "graylogic/system"
)

// Topics builds Gray Logic Audio topic names.
//
//	mqtt.Topics{}.AudioState("192.168.1.195")
//	// graylogic/audio/state/192-168-1-195
type Topics struct{}

// AudioCommand is the topic an action is requested on.
//
// Example: graylogic/audio/command/volume_up
func (Topics) AudioCommand(action string) string {
	return TopicPrefixAudio + "/command/" + action
}

// AllAudioCommands matches every command topic.
func (Topics) AllAudioCommands() string {
	return TopicPrefixAudio + "/command/+"
}

// AudioState is the retained per-speaker state topic. Dots in the host are
// replaced so the address stays a single readable topic level.
//
// Example: graylogic/audio/state/192-168-1-195
func (Topics) AudioState(host string) string {
	return TopicPrefixAudio + "/state/" + topicSafe(host)
}

// AudioHealth is the retained service health topic.
func (Topics) AudioHealth() string {
	return TopicPrefixAudio + "/health"
}

// SystemStatus carries online/offline status and the LWT.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// CommandAction extracts the action from a command topic.
// ok is false for topics outside graylogic/audio/command/.
func (Topics) CommandAction(topic string) (action string, ok bool) {
	action, ok = strings.CutPrefix(topic, TopicPrefixAudio+"/command/")
	if !ok || action == "" || strings.Contains(action, "/") {
		return "", false
	}
	return action, true
}

func topicSafe(s string) string {
	return strings.NewReplacer(".", "-", "/", "-", "+", "-", "#", "-", ":", "-").Replace(s)
}
