package storage

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/nerrad567/settingsd/internal/infrastructure/config"
	"github.com/nerrad567/settingsd/internal/settings"
)

func TestVolume_BeginDefault(t *testing.T) {
	base := afero.NewMemMapFs()
	if err := base.MkdirAll("/flash", 0750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	v, err := NewVolumeOn(base, config.StorageConfig{Medium: "flash", FlashRoot: "/flash"})
	if err != nil {
		t.Fatalf("NewVolumeOn() error = %v", err)
	}

	store := settings.NewStore()
	if err := store.BeginDefault(v); err != nil {
		t.Fatalf("BeginDefault() error = %v", err)
	}

	if store.Count() != 4 {
		t.Errorf("Count() = %d, want 4 defaults", store.Count())
	}
	if exists, _ := afero.Exists(base, "/flash/settings.json"); !exists {
		t.Error("default document not written to the flash root")
	}
}

func TestVolume_BeginDefaultMountFailure(t *testing.T) {
	v, err := NewVolumeOn(afero.NewMemMapFs(), config.StorageConfig{Medium: "flash", FlashRoot: "/flash"})
	if err != nil {
		t.Fatalf("NewVolumeOn() error = %v", err)
	}

	store := settings.NewStore()
	err = store.BeginDefault(v)
	if !errors.Is(err, settings.ErrStorageUnavailable) {
		t.Errorf("BeginDefault() error = %v, want ErrStorageUnavailable", err)
	}
	if !errors.Is(err, ErrMountFailed) {
		t.Errorf("BeginDefault() error = %v, want it to wrap ErrMountFailed", err)
	}
}
