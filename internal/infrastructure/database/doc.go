// Package database opens the SQLite file that persists the rules model and
// applies its schema migrations.
//
// Connections run with WAL mode and a busy timeout so the API can read the
// model while an import replaces it. Migrations are read from any fs.FS:
// the binary passes the embedded migrations package, tests pass testdata.
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
//	    return err
//	}
package database
