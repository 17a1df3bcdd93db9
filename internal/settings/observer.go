package settings

import "time"

// Source identifies what caused a setting change.
type Source string

// Change sources.
const (
	// SourceBootstrap marks descriptors written by the bootstrap policy.
	SourceBootstrap Source = "bootstrap"

	// SourceLocal marks values written through Save, SetValue or Toggle.
	SourceLocal Source = "local"
)

// Change describes one persisted setting value.
type Change struct {
	Name   string
	Type   Type
	Old    Value // zero Value when the setting was just created
	New    Value
	Source Source
	At     time.Time
}

// Observer is notified after a change has been written to storage.
//
// Observers run synchronously on the caller's goroutine after the store
// mutex is released. They must not block for long and must not fail the
// write; errors are theirs to log.
type Observer interface {
	SettingChanged(change Change)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(change Change)

// SettingChanged implements Observer.
func (f ObserverFunc) SettingChanged(change Change) {
	f(change)
}

// Logger is the diagnostic sink used by the store.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
