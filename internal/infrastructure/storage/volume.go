package storage

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/nerrad567/settingsd/internal/infrastructure/config"
)

// ErrMountFailed is returned when a medium cannot be mounted.
var ErrMountFailed = errors.New("storage: mount failed")

// Volume is a configured storage medium.
//
// It implements settings.Mounter.
type Volume struct {
	medium string
	root   string
	base   afero.Fs
}

// NewVolume creates a Volume for cfg.Medium over the host filesystem.
func NewVolume(cfg config.StorageConfig) (*Volume, error) {
	return NewVolumeOn(afero.NewOsFs(), cfg)
}

// NewVolumeOn creates a Volume whose roots live on base.
// Tests pass an afero.MemMapFs as base.
func NewVolumeOn(base afero.Fs, cfg config.StorageConfig) (*Volume, error) {
	v := &Volume{medium: cfg.Medium, base: base}
	switch cfg.Medium {
	case config.MediumFlash:
		v.root = cfg.FlashRoot
	case config.MediumSD:
		v.root = cfg.SDRoot
	case config.MediumMemory:
	default:
		return nil, fmt.Errorf("storage: unknown medium %q", cfg.Medium)
	}
	return v, nil
}

// Medium returns the configured medium name.
func (v *Volume) Medium() string {
	return v.medium
}

// Root returns the host directory backing the volume, or "" for memory.
func (v *Volume) Root() string {
	return v.root
}

// Mount returns a filesystem rooted at the medium.
//
// Returns:
//   - afero.Fs: filesystem whose "/" is the medium root
//   - error: ErrMountFailed if the root is missing or not a directory
func (v *Volume) Mount() (afero.Fs, error) {
	if v.medium == config.MediumMemory {
		return afero.NewMemMapFs(), nil
	}

	isDir, err := afero.IsDir(v.base, v.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s root %q: %w", ErrMountFailed, v.medium, v.root, err)
	}
	if !isDir {
		return nil, fmt.Errorf("%w: %s root %q is not a directory", ErrMountFailed, v.medium, v.root)
	}
	return afero.NewBasePathFs(v.base, v.root), nil
}
