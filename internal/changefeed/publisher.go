package changefeed

import (
	"time"

	"github.com/nerrad567/settingsd/internal/settings"
)

// RetainedPublisher is the subset of *mqtt.Client used by Publisher.
type RetainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// TopicFunc maps a setting name to its topic.
type TopicFunc func(name string) string

// Publisher publishes every change as a retained MQTT message.
type Publisher struct {
	client RetainedPublisher
	topic  TopicFunc
	logger settings.Logger
}

// NewPublisher creates a Publisher. topic is usually client.Topics().Setting.
// logger may be nil.
func NewPublisher(client RetainedPublisher, topic TopicFunc, logger settings.Logger) *Publisher {
	return &Publisher{client: client, topic: topic, logger: logger}
}

// SettingChanged implements settings.Observer.
func (p *Publisher) SettingChanged(c settings.Change) {
	payload, err := NewMessage(c).Encode()
	if err != nil {
		p.warn("could not encode setting change", c.Name, err)
		return
	}

	topic := p.topic(c.Name)
	if err := p.client.PublishRetained(topic, payload); err != nil {
		p.warn("could not publish setting change", c.Name, err)
		return
	}
	if p.logger != nil {
		p.logger.Debug("setting change published", "topic", topic)
	}
}

// SourceSnapshot marks messages published by PublishSnapshot.
const SourceSnapshot settings.Source = "snapshot"

// PublishSnapshot publishes the current value of every descriptor. It is
// called once at startup so retained state matches the document before any
// change happens.
func (p *Publisher) PublishSnapshot(descriptors []settings.Descriptor, at time.Time) {
	for _, d := range descriptors {
		p.SettingChanged(settings.Change{
			Name:   d.Name,
			Type:   d.Type,
			New:    d.Value,
			Source: SourceSnapshot,
			At:     at,
		})
	}
}

func (p *Publisher) warn(msg, name string, err error) {
	if p.logger != nil {
		p.logger.Warn(msg, "name", name, "error", err)
	}
}
