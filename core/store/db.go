package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"

	"github.com/yusufekamaulana/rsua-akreditasi/config"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// NewDB opens the configured database. sqlite is the default embedded
// driver; postgres (pgx) is selected with db_driver=postgres.
func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, error) {
	switch cfg.DBDriver {
	case "", "sqlite":
		path := cfg.DBPath
		if path == "" {
			path = "data/rsua.db"
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Printf("store: opened sqlite database at %s", path)
		return db, nil
	case "postgres":
		db, err := sql.Open("pgx", cfg.DBURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Printf("store: connected to postgres")
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

// ApplyMigrations brings the schema up to date using the embedded
// goose migrations.
func ApplyMigrations(ctx context.Context, db *sql.DB, driver string, logger *utils.Logger) error {
	goose.SetBaseFS(embeddedMigrations)
	goose.SetLogger(goose.NopLogger())
	dialect := "sqlite3"
	if driver == "postgres" {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return err
	}
	logger.Printf("store: schema at migration version %d", version)
	return nil
}
