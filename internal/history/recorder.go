package history

import (
	"context"
	"time"

	"github.com/nerrad567/settingsd/internal/settings"
)

// recordTimeout bounds a single insert so a locked database cannot stall
// the goroutine that saved the setting.
const recordTimeout = 2 * time.Second

// Recorder is a settings.Observer that writes every change to a Repository.
// Failures are logged and otherwise ignored: the settings document is
// already persisted when observers run.
type Recorder struct {
	repo   Repository
	logger settings.Logger
}

// NewRecorder creates a Recorder. logger may be nil.
func NewRecorder(repo Repository, logger settings.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// SettingChanged implements settings.Observer.
func (r *Recorder) SettingChanged(c settings.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	e := EntryFromChange(c)
	if err := r.repo.Record(ctx, &e); err != nil {
		if r.logger != nil {
			r.logger.Error("failed to record setting change", "name", c.Name, "error", err)
		}
		return
	}
	if r.logger != nil {
		r.logger.Debug("setting change recorded", "id", e.ID, "name", e.Name, "source", string(e.Source))
	}
}
