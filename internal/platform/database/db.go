package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"docvault/internal/platform/config"
)

// New opens the global control-plane database. All collections are org-scoped
// by column plus secondary indexes; there is no per-tenant database.
func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.URL
	if len(dsn) > 5 && dsn[:5] == "file:" {
		dsn = dsn[5:]
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
