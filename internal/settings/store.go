package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Mounter mounts the default storage medium (onboard flash).
type Mounter interface {
	Mount() (afero.Fs, error)
}

// Store is the persistent settings store.
//
// The canonical string is the only state kept between calls; every
// accessor reparses it.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	mu        sync.Mutex
	fs        afero.Fs
	path      string
	canonical string
	started   bool

	observers []Observer
	logger    Logger
	now       func() time.Time
}

// NewStore creates a store. Call Begin or BeginDefault before use.
func NewStore() *Store {
	return &Store{
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
}

// SetLogger sets the diagnostic sink. A nil logger discards output.
func (s *Store) SetLogger(logger Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s.logger = logger
}

// AddObserver registers an observer for persisted changes.
func (s *Store) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Begin opens the document at path on fsys.
//
// When the document is absent, cannot be opened, or cannot be parsed, the
// bootstrap policy writes DefaultDocument() to path. An unreadable existing
// document is first renamed to path + ".corrupt".
//
// Parameters:
//   - fsys: Storage medium holding the document
//   - path: Document path on fsys
//
// Returns:
//   - error: nil once a valid document is cached, ErrWrite if bootstrap
//     could not persist the default document
func (s *Store) Begin(fsys afero.Fs, path string) error {
	s.mu.Lock()
	changes, err := s.beginLocked(fsys, path)
	observers := s.observers
	s.mu.Unlock()

	if err != nil {
		return err
	}
	notify(observers, changes)
	return nil
}

// BeginDefault mounts the default flash medium and opens DefaultPath on it.
//
// Unlike Begin, a mount failure is fatal and returns ErrStorageUnavailable:
// the flash medium holds the user's configuration and is never formatted.
func (s *Store) BeginDefault(m Mounter) error {
	fsys, err := m.Mount()
	if err != nil {
		s.mu.Lock()
		s.logger.Error("settings storage mount failed", "error", err)
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return s.Begin(fsys, DefaultPath)
}

func (s *Store) beginLocked(fsys afero.Fs, path string) ([]Change, error) {
	canonical, doc, err := readDocument(fsys, path)
	switch {
	case err == nil:
		s.fs, s.path, s.canonical, s.started = fsys, path, canonical, true
		s.logger.Info("settings loaded", "path", path, "count", doc.Len())
		return nil, nil

	case errors.Is(err, ErrNotFound):
		s.logger.Warn("settings file not found", "path", path)

	case errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, ErrParse),
		errors.Is(err, ErrInvalidDocument):
		s.logger.Error("settings file unreadable", "path", path, "error", err)
		if backup, renameErr := preserveUnreadable(fsys, path); renameErr != nil {
			s.logger.Warn("could not preserve unreadable settings file", "path", path, "error", renameErr)
		} else {
			s.logger.Info("unreadable settings file preserved", "backup", backup)
		}

	default:
		return nil, err
	}

	s.logger.Info("creating default settings file", "path", path)
	doc = DefaultDocument()
	canonical, err = createDefault(fsys, path, doc)
	if err != nil {
		s.logger.Error("failed to create settings file", "path", path, "error", err)
		return nil, err
	}
	s.fs, s.path, s.canonical, s.started = fsys, path, canonical, true

	at := s.now()
	changes := make([]Change, 0, doc.Len())
	for _, d := range doc.Settings {
		changes = append(changes, Change{
			Name:   d.Name,
			Type:   d.Type,
			New:    d.Value,
			Source: SourceBootstrap,
			At:     at,
		})
	}
	return changes, nil
}

// Canonical returns the cached serialisation of the document: the compact
// form of what was last read, and byte-identical to what was last written.
func (s *Store) Canonical() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canonical
}

// Path returns the document path, or "" before Begin.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Tick is invoked periodically by the owning control loop.
// The store has no periodic work.
func (s *Store) Tick(_ time.Time) {}

// Value returns the stored value of the setting named key.
//
// Returns:
//   - Value: the tagged stored value
//   - error: ErrNotStarted, ErrParse, or ErrKeyNotFound
func (s *Store) Value(key string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.parseLocked()
	if err != nil {
		return Value{}, err
	}
	i := doc.Index(key)
	if i < 0 {
		return Value{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return doc.Settings[i].Value, nil
}

// SetValue persists v as the value of the setting named key.
//
// The value's type must match the stored value's type. Ranges are not
// enforced here; editing UIs check Range.Contains before saving.
//
// Returns:
//   - error: ErrKeyNotFound (nothing written), ErrTypeMismatch, or ErrWrite
//     (cache unchanged)
func (s *Store) SetValue(key string, v Value) error {
	s.mu.Lock()
	change, err := s.mutateLocked(key, func(d Descriptor) (Value, error) {
		if v.Kind() != d.Value.Kind() {
			return Value{}, fmt.Errorf("%w: setting %q is %s, got %s", ErrTypeMismatch, key, d.Value.Kind(), v.Kind())
		}
		return v, nil
	})
	observers := s.observers
	s.mu.Unlock()

	if err != nil {
		return err
	}
	notify(observers, []Change{change})
	return nil
}

// Toggle negates the boolean setting named key, persists it and returns
// the new value.
//
// Returns:
//   - bool: the value now stored
//   - error: ErrKeyNotFound or ErrTypeMismatch (nothing written), ErrWrite
func (s *Store) Toggle(key string) (bool, error) {
	var next bool

	s.mu.Lock()
	change, err := s.mutateLocked(key, func(d Descriptor) (Value, error) {
		current, err := d.Value.AsBool()
		if err != nil {
			return Value{}, fmt.Errorf("setting %q: %w", key, err)
		}
		next = !current
		return BoolValue(next), nil
	})
	observers := s.observers
	s.mu.Unlock()

	if err != nil {
		return false, err
	}
	notify(observers, []Change{change})
	return next, nil
}

// mutateLocked parses the canonical string once, computes the new value of
// key with fn, patches it in place and writes the result through. The
// cache is only updated after the write succeeded.
func (s *Store) mutateLocked(key string, fn func(Descriptor) (Value, error)) (Change, error) {
	doc, err := s.parseLocked()
	if err != nil {
		return Change{}, err
	}

	i := doc.Index(key)
	if i < 0 {
		return Change{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	d := doc.Settings[i]

	next, err := fn(d)
	if err != nil {
		return Change{}, err
	}

	raw, err := next.MarshalJSON()
	if err != nil {
		return Change{}, err
	}
	updated, err := sjson.SetRaw(s.canonical, fmt.Sprintf("%s.%d.value", settingsKey, i), string(raw))
	if err != nil {
		return Change{}, fmt.Errorf("%w: patching %q: %w", ErrWrite, key, err)
	}

	if err := writeDocument(s.fs, s.path, updated); err != nil {
		s.logger.Error("failed to save setting", "name", key, "error", err)
		return Change{}, err
	}
	s.canonical = updated

	s.logger.Info("setting saved", "name", key, "value", next.String())
	s.logger.Debug("settings document", "json", updated)

	return Change{
		Name:   d.Name,
		Type:   d.Type,
		Old:    d.Value,
		New:    next,
		Source: SourceLocal,
		At:     s.now(),
	}, nil
}

// IndexToName returns the name of the setting at ordinal position i.
//
// Returns:
//   - string: setting name
//   - error: ErrIndexOutOfRange, ErrNotStarted, or ErrParse
func (s *Store) IndexToName(i int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.parseLocked()
	if err != nil {
		return "", err
	}
	if i < 0 || i >= doc.Len() {
		return "", fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, doc.Len())
	}
	return doc.Settings[i].Name, nil
}

// Count returns the number of settings, or 0 if the document is unusable.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.parseLocked()
	if err != nil {
		return 0
	}
	return doc.Len()
}

// TypeOf returns the type label of the setting named key exactly as stored
// (e.g. "uint8_t"), or "" when it is absent or the document is unusable.
// Descriptors carries the normalised Type.
func (s *Store) TypeOf(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.parseLocked()
	if err != nil {
		return ""
	}
	if i := doc.Index(key); i >= 0 {
		return gjson.Get(s.canonical, fmt.Sprintf("%s.%d.type", settingsKey, i)).String()
	}
	return ""
}

// Descriptors returns a copy of all descriptors in document order, for
// display and editing UIs.
func (s *Store) Descriptors() ([]Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.parseLocked()
	if err != nil {
		return nil, err
	}
	return doc.Settings, nil
}

// parseLocked parses the canonical string. Failures are reported to the
// diagnostic sink; the cache is never replaced by a fallback document.
func (s *Store) parseLocked() (Document, error) {
	if !s.started {
		return Document{}, ErrNotStarted
	}
	doc, err := ParseDocument(s.canonical)
	if err != nil {
		s.logger.Error("could not parse settings", "error", err)
		return Document{}, err
	}
	return doc, nil
}

// notify delivers changes to observers in registration order.
func notify(observers []Observer, changes []Change) {
	for _, c := range changes {
		for _, o := range observers {
			o.SettingChanged(c)
		}
	}
}
