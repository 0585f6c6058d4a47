// Package database provides SQLite connectivity for Gray Logic Motion.
//
// This package manages:
//   - Database connection with WAL mode for concurrent reads
//   - Embedded schema migrations (see the top-level migrations package)
//   - Connection lifecycle and health checks
//
// The file is created with 0600 permissions and every query is
// parameterised.
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
// Migrations are additive: new columns are NULLABLE or carry a DEFAULT,
// and each .up.sql has a matching .down.sql.
package database
