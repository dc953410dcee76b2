// Package database provides the SQLite connection used by homectl.
//
// The database holds the append-only readings table and the device state
// history. Schema changes are plain SQL files applied in version order and
// tracked in a schema_migrations table:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// The connection pool is capped at one connection because SQLite allows a
// single writer.
package database
