package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase writes the config file when it does not exist yet, then initializes the
// configured backend. For SQLite this applies every pending migration.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				return err
			}

			config, err := shared.ResolveConfig(r.configPath)
			if err != nil {
				return err
			}
			r.config = config
			r.writePlain("✓ Config file created: %s\n", r.configPath)
		}
	}

	db := r.config.Database
	r.logger.Info("initializing storage", "driver", db.Driver)

	if _, err := r.openStore(); err != nil {
		return err
	}

	switch db.Driver {
	case "file":
		r.writePlain("✓ File storage ready: %s\n", db.FilePath)
	default:
		r.writePlain("✓ Database ready: %s\n", db.Path)
	}
	return nil
}

// SetupStatus lists the migrations that have not been applied to the SQLite database.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openSQLite()
	if err != nil {
		return err
	}
	defer db.Close()

	pending, err := shared.PendingMigrations(db)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		r.writePlain("Database is up to date\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("%d pending migration(s)", len(pending)))
	for _, m := range pending {
		r.writePlain("  %03d  %s\n", m.Version, m.Name)
	}
	return nil
}

// SetupRollback rolls back the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openSQLite()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}
	r.logger.Info("rolled back migration", "path", r.config.Database.Path)
	r.writePlain("✓ Rolled back the latest migration\n")
	return nil
}

// openSQLite opens the configured database without applying migrations.
func (r *Runner) openSQLite() (*sql.DB, error) {
	cfg := r.config.Database
	if cfg.Driver == "file" {
		return nil, fmt.Errorf("%w: migrations only apply to the sqlite driver", shared.ErrInvalidArgument)
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, cfg.Path, cfg.MaxOpenConns, cfg.MaxIdleConns)
	return db, nil
}
