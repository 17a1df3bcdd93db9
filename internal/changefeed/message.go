package changefeed

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/settingsd/internal/settings"
)

// Message is the JSON body published for a change.
type Message struct {
	Name      string          `json:"name"`
	Type      settings.Type   `json:"type"`
	Value     settings.Value  `json:"value"`
	Previous  settings.Value  `json:"previous,omitzero"`
	Source    settings.Source `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage converts a change into its wire form.
func NewMessage(c settings.Change) Message {
	return Message{
		Name:      c.Name,
		Type:      c.Type,
		Value:     c.New,
		Previous:  c.Old,
		Source:    c.Source,
		Timestamp: c.At.UTC(),
	}
}

// Encode returns the compact JSON encoding of m.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
