// Package database provides the SQLite connection used for the settings
// change history.
//
// This package manages:
//   - Connection setup (WAL mode, busy timeout, single writer)
//   - In-memory databases for tests and the "memory" storage medium
//   - Versioned, additive-only schema migrations read from an fs.FS
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Every migration ships as a YYYYMMDD_HHMMSS_description.up.sql file with
// a matching .down.sql. New columns must be NULLable or have a DEFAULT.
package database
