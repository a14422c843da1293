// Package database provides SQLite connectivity for Gray Logic Audio.
//
// The database holds the command log (every volume and transport change
// with its per-speaker outcome). It never holds volume snapshots: undo
// history lives in the controller for the life of the process.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Embedded, versioned schema migrations
//   - Health checks for the API's /health endpoint
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and
// registered by the migrations package through MigrationsFS.
package database
