package settings

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tidwall/pretty"
)

// Document store constants.
const (
	// DefaultPath is the document location on the default flash medium.
	DefaultPath = "/settings.json"

	// maxDocumentSize bounds how much is read from storage. Settings
	// documents are a few hundred bytes; anything larger is not ours.
	maxDocumentSize = 64 << 10

	// filePermissions is the permission mode for the settings document.
	filePermissions = 0600

	// dirPermissions is the permission mode for created parent directories.
	dirPermissions = 0750

	// tempSuffix names the scratch file replaced atomically on write.
	tempSuffix = ".tmp"

	// corruptSuffix names the copy kept of an unreadable document.
	corruptSuffix = ".corrupt"
)

// readDocument loads and validates the document at path.
//
// Returns:
//   - string: canonical (compact) serialisation of the document
//   - Document: parsed descriptors
//   - error: ErrNotFound when path does not exist, ErrStorageUnavailable when
//     it exists but cannot be opened or read, ErrParse/ErrInvalidDocument when
//     its content is unusable
func readDocument(fsys afero.Fs, path string) (string, Document, error) {
	exists, err := afero.Exists(fsys, path)
	if err != nil {
		return "", Document{}, fmt.Errorf("%w: stat %s: %w", ErrStorageUnavailable, path, err)
	}
	if !exists {
		return "", Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return "", Document{}, fmt.Errorf("%w: opening %s: %w", ErrStorageUnavailable, path, err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentSize+1))
	if err != nil {
		return "", Document{}, fmt.Errorf("%w: reading %s: %w", ErrStorageUnavailable, path, err)
	}
	if len(data) > maxDocumentSize {
		return "", Document{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrParse, path, maxDocumentSize)
	}

	doc, err := ParseDocument(string(data))
	if err != nil {
		return "", Document{}, err
	}

	return string(pretty.Ugly(data)), doc, nil
}

// writeDocument replaces the document at path with canonical.
//
// The content goes to a scratch file first and is renamed over path, so a
// failed write leaves the previous document intact.
func writeDocument(fsys afero.Fs, path, canonical string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %w", ErrWrite, path, err)
	}

	tmp := path + tempSuffix
	f, err := fsys.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrWrite, tmp, err)
	}

	if _, err := f.Write([]byte(canonical)); err != nil {
		f.Close()        //nolint:errcheck // already failing
		fsys.Remove(tmp) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("%w: writing %s: %w", ErrWrite, tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()        //nolint:errcheck // already failing
		fsys.Remove(tmp) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("%w: syncing %s: %w", ErrWrite, tmp, err)
	}
	if err := f.Close(); err != nil {
		fsys.Remove(tmp) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("%w: closing %s: %w", ErrWrite, tmp, err)
	}

	if err := fsys.Rename(tmp, path); err != nil {
		fsys.Remove(tmp) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("%w: replacing %s: %w", ErrWrite, path, err)
	}
	return nil
}

// preserveUnreadable moves an unreadable document aside before bootstrap
// overwrites it, so a user can recover hand edits.
func preserveUnreadable(fsys afero.Fs, path string) (string, error) {
	backup := path + corruptSuffix
	if err := fsys.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}
