package settings

import (
	"errors"
	"fmt"
)

// Scalar is the set of Go types a setting can be read or written as.
type Scalar interface {
	bool | int | uint8 | string
}

// Lookup returns the setting named key converted to T.
//
// Returns:
//   - T: the stored value
//   - error: ErrKeyNotFound, ErrTypeMismatch, ErrParse or ErrNotStarted,
//     so callers can tell "absent" from "stored zero"
func Lookup[T Scalar](s *Store, key string) (T, error) {
	var out T

	v, err := s.Value(key)
	if err != nil {
		return out, err
	}

	switch p := any(&out).(type) {
	case *bool:
		*p, err = v.AsBool()
	case *int:
		*p, err = v.AsInt()
	case *uint8:
		*p, err = v.AsUInt8()
	case *string:
		*p, err = v.AsString()
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("setting %q: %w", key, err)
	}
	return out, nil
}

// Load returns the setting named key converted to T, or T's zero value
// (false, 0, "") when it cannot be read. The failure is reported to the
// store's diagnostic sink; use Lookup to handle it.
func Load[T Scalar](s *Store, key string) T {
	v, err := Lookup[T](s, key)
	if err != nil {
		s.logLoadFailure(key, err)
	}
	return v
}

// Save persists value as the setting named key.
//
// Returns:
//   - error: ErrKeyNotFound (nothing written), ErrTypeMismatch, ErrWrite
func Save[T Scalar](s *Store, key string, value T) error {
	return s.SetValue(key, valueOf(value))
}

// valueOf tags a Go scalar with its setting type.
func valueOf[T Scalar](value T) Value {
	switch v := any(value).(type) {
	case bool:
		return BoolValue(v)
	case int:
		return IntValue(v)
	case uint8:
		return UInt8Value(v)
	case string:
		return StringValue(v)
	}
	return Value{}
}

func (s *Store) logLoadFailure(key string, err error) {
	s.mu.Lock()
	logger := s.logger
	s.mu.Unlock()

	switch {
	case errors.Is(err, ErrKeyNotFound):
		logger.Debug("setting not found", "name", key)
	case errors.Is(err, ErrTypeMismatch):
		logger.Warn("setting read with wrong type", "name", key, "error", err)
	case errors.Is(err, ErrParse), errors.Is(err, ErrInvalidDocument):
		// already reported by parseLocked
	default:
		logger.Warn("setting load failed", "name", key, "error", err)
	}
}
