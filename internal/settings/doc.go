// Package settings provides the persistent, typed settings store.
//
// The store keeps a single JSON document on a storage medium (SD card or
// onboard flash) and exposes named settings with a declared type and an
// optional valid range:
//
//	{
//	  "Settings": [
//	    {"name": "ForcePMKID", "type": "bool", "value": true,
//	     "range": {"min": false, "max": true}}
//	  ]
//	}
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                      Typed Accessor Layer                   │
//	│  Load / Lookup / Save / Toggle / IndexToName / Count / ...  │
//	└──────────────────────────────┬─────────────────────────────┘
//	                               │ parse canonical string per call
//	┌──────────────────────────────▼─────────────────────────────┐
//	│                       Bootstrap Policy                      │
//	│  DefaultDocument() written through when absent/unreadable   │
//	└──────────────────────────────┬─────────────────────────────┘
//	                               │
//	┌──────────────────────────────▼─────────────────────────────┐
//	│                        Document Store                       │
//	│  readDocument / writeDocument over an afero.Fs              │
//	└────────────────────────────────────────────────────────────┘
//
// The store holds no live object graph. The canonical string is the single
// source of truth and is reparsed on every call. It is the compact form of
// what was last read, and byte-identical to what was last written.
// Read-modify-write operations parse once, patch the value in place and
// write through before the cache is updated.
//
// # Usage
//
//	store := settings.NewStore()
//	store.SetLogger(log.With("component", "settings"))
//	if err := store.Begin(fs, "/settings.json"); err != nil {
//	    return err
//	}
//
//	if settings.Load[bool](store, "SavePCAP") {
//	    // ...
//	}
//	on, err := store.Toggle("EnableLED")
//
// # Thread Safety
//
// Every public method takes the store mutex for its whole duration, so a
// scan-then-save sequence cannot interleave with another writer. Observers
// are notified after the mutex is released.
package settings
