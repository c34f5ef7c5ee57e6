// Package database provides the SQLite store for parkrunner.
//
// One embedded database holds everything the robot keeps between runs:
// colour sensor calibration, tuned steering gains and the run history.
//
// This package manages:
//   - Connection setup with optional WAL mode and a busy timeout
//   - Schema migrations registered from an fs.FS (see the migrations package)
//   - STRICT tables and foreign keys
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are nullable or have defaults, and
// each YYYYMMDD_HHMMSS_name.up.sql may have a matching .down.sql.
package database
