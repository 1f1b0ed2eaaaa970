package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"farm-registry/internal/adapters/storage/sqlstore"
	"farm-registry/internal/domain/farms"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

// DefaultDSN es el archivo local para dev.
const DefaultDSN = "farm-registry.db"

// Open abre SQLite (modernc, sin cgo) con FKs activas y transacciones IMMEDIATE.
// Una sola conexión: SQLite serializa escritores igual y ":memory:" necesita que sea siempre la misma.
func Open(dsn string) (*sql.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultDSN
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Migrate crea las tablas si no existen.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}

func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{
		Name:     "sqlite",
		MapError: mapError,
	}
}

func NewStore(db *sql.DB) *sqlstore.Store {
	return sqlstore.New(db, Dialect())
}

// mapError: "UNIQUE constraint failed: farms.email" y FK violadas.
func mapError(err error) error {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return err
	}

	if sqErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}

	msg := sqErr.Error()
	switch {
	case strings.Contains(msg, "farms.email"):
		return &farms.DuplicateKeyError{Field: "email"}
	case strings.Contains(msg, "farm_animals.animal_number"):
		return &farms.DuplicateKeyError{Field: "animal_number"}
	case sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(msg, "FOREIGN KEY"):
		return farms.ErrNotFound
	}
	return err
}
