// Package history keeps a local log of persisted settings changes in SQLite.
//
// A Recorder registered with settings.Store.AddObserver writes one row per
// Change into the setting_changes table (see migrations/). The log is
// independent of the settings document: losing or bootstrapping the
// document never rewrites history.
//
// Usage:
//
//	repo := history.NewSQLiteRepository(db.DB)
//	store.AddObserver(history.NewRecorder(repo, logger.Component("history")))
//
//	entries, err := repo.List(ctx, history.Filter{Name: settings.SavePCAP, Limit: 20})
package history
