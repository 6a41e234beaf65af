package mqtt

import "strings"

const TopicSeparator = "/"

// TrimTopic trims TopicSeparator from the start and end of the specified topic.
func TrimTopic(topic string) string {
	return strings.Trim(topic, TopicSeparator)
}

// JoinTopic joins non-empty component parts with TopicSeparator, trimming each part as it is appended.
func JoinTopic(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = TrimTopic(part); part != "" {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, TopicSeparator)
}

// CutTopicPrefix returns topic relative to prefix, and whether topic was below prefix at all. Both are compared
// without leading and trailing separators.
func CutTopicPrefix(topic, prefix string) (string, bool) {
	topic, prefix = TrimTopic(topic), TrimTopic(prefix)
	if prefix == "" {
		return topic, true
	}

	if topic == prefix {
		return "", true
	}

	rest, ok := strings.CutPrefix(topic, prefix+TopicSeparator)
	return rest, ok
}

// ValidTopicLevel reports whether s can be used as a single topic level: it must be non-empty and must not contain a
// separator or a wildcard.
func ValidTopicLevel(s string) bool {
	return s != "" && !strings.ContainsAny(s, TopicSeparator+"+#")
}
