package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-rules/internal/model"
	"github.com/nerrad567/gray-logic-rules/migrations"
)

// openDatabase opens the SQLite file and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// loadModel reads the model from the configured source. For the sqlite
// source the opened database is returned so the caller can health-check
// and close it; for the file source it is nil.
func loadModel(ctx context.Context, cfg *config.Config) (*model.Model, *database.DB, error) {
	switch cfg.Model.Source {
	case config.ModelSourceSQLite:
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		m, err := model.NewSQLiteRepository(db.DB).Load(ctx)
		if err != nil {
			db.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, nil, fmt.Errorf("loading model from %s: %w", db.Path(), err)
		}
		return m, db, nil

	default:
		m, err := model.LoadFile(cfg.Model.Path)
		if err != nil {
			return nil, nil, err
		}
		return m, nil, nil
	}
}

// check loads and compiles the model and prints what it contains.
func check(ctx context.Context, out io.Writer, cfg *config.Config) error {
	m, db, err := loadModel(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	rt, err := model.Build(m)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}

	fmt.Fprintf(out, "entities (%d):\n", len(rt.Entities.List()))
	for _, e := range rt.Entities.List() {
		attrs := slices.Sorted(maps.Keys(e.Attributes()))
		fmt.Fprintf(out, "  %-20s topic=%q attributes=%s\n", e.Name(), e.Topic(), strings.Join(attrs, ","))
	}

	fmt.Fprintf(out, "rest sources (%d):\n", len(rt.Sources))
	for _, s := range rt.Sources {
		fmt.Fprintf(out, "  %-20s %s %s every %s\n", s.Name, s.Request.Method, s.Request.URL, s.Interval)
	}

	fmt.Fprintf(out, "automations (%d):\n", len(rt.Automations))
	for _, a := range rt.Automations {
		st := a.Status()
		fmt.Fprintf(out, "  %-20s enabled=%t freq=%gHz steps=%d actions=%d\n",
			st.Name, st.Enabled, st.Frequency, st.Steps, st.Actions)
		if st.Description != "" {
			fmt.Fprintf(out, "  %-20s %s\n", "", st.Description)
		}
		if len(st.Reads) > 0 {
			fmt.Fprintf(out, "  %-20s reads %s\n", "", strings.Join(st.Reads, ", "))
		}
	}
	fmt.Fprintln(out, "model OK")
	return nil
}

// importModel compiles the YAML model at path and, if it builds, replaces
// the model stored in the database.
func importModel(ctx context.Context, out io.Writer, cfg *config.Config, path string) error {
	m, err := model.LoadFile(path)
	if err != nil {
		return err
	}
	if _, err := model.Build(m); err != nil {
		return fmt.Errorf("building model: %w", err)
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := model.NewSQLiteRepository(db.DB).Save(ctx, m); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	fmt.Fprintf(out, "imported %d entities, %d REST sources, %d automations into %s\n",
		len(m.Entities), len(m.RESTSources), len(m.Automations), db.Path())
	return nil
}
