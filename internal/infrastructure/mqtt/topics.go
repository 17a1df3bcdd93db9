package mqtt

import "strings"

// Topic layout under the configured prefix:
//
//	<prefix>/settings/<name>     retained current value of one setting
//	<prefix>/settingsd/status    retained online/offline status (LWT)
const (
	settingsSegment = "settings"
	statusSegment   = "settingsd/status"
)

// Topics builds settingsd topic names under a fixed prefix.
//
//	topics := mqtt.NewTopics("marauder")
//	topics.Setting("ForcePMKID") // "marauder/settings/ForcePMKID"
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix. Trailing slashes are dropped.
func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.TrimRight(prefix, "/")}
}

// Prefix returns the topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Setting returns the retained state topic for the setting named name.
func (t Topics) Setting(name string) string {
	return t.prefix + "/" + settingsSegment + "/" + SanitizeLevel(name)
}

// Status returns the daemon status topic.
func (t Topics) Status() string {
	return t.prefix + "/" + statusSegment
}

// levelReplacer maps characters that would split or wildcard a topic level.
var levelReplacer = strings.NewReplacer(
	"/", "_",
	"+", "_",
	"#", "_",
	" ", "_",
	"\x00", "",
)

// SanitizeLevel makes s safe to use as a single topic level.
// Setting names may contain spaces or slashes, which must not change the
// topic hierarchy. An empty result becomes "_".
func SanitizeLevel(s string) string {
	out := levelReplacer.Replace(s)
	if out == "" {
		return "_"
	}
	return out
}
