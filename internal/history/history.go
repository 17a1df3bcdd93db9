package history

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/settingsd/internal/settings"
)

// Page size bounds for List.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ErrInvalidEntry is returned when an entry lacks a name, type or new value.
var ErrInvalidEntry = errors.New("history: invalid entry")

// Entry is one recorded settings change.
type Entry struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Type   settings.Type   `json:"type"`
	Old    settings.Value  `json:"old,omitzero"`
	New    settings.Value  `json:"new"`
	Source settings.Source `json:"source"`

	// CreatedAt is the time of the change (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// EntryFromChange converts a store notification into an Entry.
func EntryFromChange(c settings.Change) Entry {
	return Entry{
		Name:      c.Name,
		Type:      c.Type,
		Old:       c.Old,
		New:       c.New,
		Source:    c.Source,
		CreatedAt: c.At,
	}
}

// Filter controls which entries List returns.
type Filter struct {
	Name   string // optional: only changes to this setting
	Limit  int    // default DefaultLimit, max MaxLimit
	Offset int
}

// Repository stores and retrieves settings changes.
//
// Implementations must be safe for concurrent use.
type Repository interface {
	// Record inserts e. ID and CreatedAt are generated when empty.
	Record(ctx context.Context, e *Entry) error

	// List returns entries matching f, newest first.
	List(ctx context.Context, f Filter) ([]Entry, error)

	// Prune deletes entries older than olderThan and returns how many.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
