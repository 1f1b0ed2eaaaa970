package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"
)

// querier lo cumplen *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

const (
	farmColumns   = `id, owner_user_id, name, email, website, created_at, updated_at`
	animalColumns = `id, farm_id, animal_number, type_name, years, created_at, updated_at`
	shareColumns  = `id, farm_id, owner_user_id, grantee_user_id, scopes, status, created_at, updated_at, revoked_at`
)

func scanFarm(s scanner) (farms.Farm, error) {
	var f farms.Farm
	if err := s.Scan(&f.ID, &f.OwnerUserID, &f.Name, &f.Email, &f.Website, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return farms.Farm{}, err
	}
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return f, nil
}

func scanAnimal(s scanner) (farms.Animal, error) {
	var (
		a     farms.Animal
		years sql.NullInt64
	)
	if err := s.Scan(&a.ID, &a.FarmID, &a.AnimalNumber, &a.TypeName, &years, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return farms.Animal{}, err
	}
	if years.Valid {
		y := int(years.Int64)
		a.Years = &y
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func scanShare(s scanner) (shares.Share, error) {
	var (
		sh        shares.Share
		scopes    string
		status    string
		revokedAt sql.NullTime
	)
	if err := s.Scan(&sh.ID, &sh.FarmID, &sh.OwnerUserID, &sh.GranteeUserID, &scopes, &status,
		&sh.CreatedAt, &sh.UpdatedAt, &revokedAt); err != nil {
		return shares.Share{}, err
	}
	sh.Scopes = decodeScopes(scopes)
	sh.Status = shares.Status(status)
	sh.CreatedAt = sh.CreatedAt.UTC()
	sh.UpdatedAt = sh.UpdatedAt.UTC()
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		sh.RevokedAt = &t
	}
	return sh, nil
}

// Scopes se guardan como texto "a,b" (mismo formato en Postgres y SQLite).
func encodeScopes(in []shares.Scope) string {
	parts := make([]string, 0, len(in))
	for _, s := range in {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ",")
}

func decodeScopes(raw string) []shares.Scope {
	out := make([]shares.Scope, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, shares.Scope(p))
		}
	}
	return out
}

func nullYears(y *int) sql.NullInt64 {
	if y == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*y), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
