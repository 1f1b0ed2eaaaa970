package sqlstore

import (
	"context"
	"database/sql"

	"farm-registry/internal/domain/activity"
	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"
)

// Store implementa farms.Repository sobre database/sql. Postgres y SQLite lo usan con
// su propio Dialect.
type Store struct {
	conn
	db *sql.DB
}

func New(db *sql.DB, d Dialect) *Store {
	return &Store{conn: conn{q: db, d: d}, db: db}
}

func (s *Store) Shares() *ShareRepo      { return &ShareRepo{conn: s.conn} }
func (s *Store) Activity() *ActivityRepo { return &ActivityRepo{conn: s.conn} }

// WithinTx abre una transacción; error en fn o en el commit => rollback completo.
func (s *Store) WithinTx(ctx context.Context, fn func(tx farms.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.d.mapError(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&sqlTx{conn: conn{q: tx, d: s.d, lock: s.d.ForUpdate}}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return s.d.mapError(err)
	}
	return nil
}

func (s *Store) GetAnimal(ctx context.Context, animalID string) (farms.AnimalWithFarm, error) {
	row := s.db.QueryRowContext(ctx, s.query(`
		SELECT a.id, a.farm_id, a.animal_number, a.type_name, a.years, a.created_at, a.updated_at,
		       f.name, f.owner_user_id
		FROM farm_animals a
		JOIN farms f ON f.id = a.farm_id
		WHERE a.id = ?`), animalID)

	out, err := scanAnimalWithFarm(row)
	if isNoRows(err) {
		return farms.AnimalWithFarm{}, farms.ErrNotFound
	}
	if err != nil {
		return farms.AnimalWithFarm{}, s.d.mapError(err)
	}
	return out, nil
}

func (s *Store) ListFarmsByOwner(ctx context.Context, ownerUserID string, page farms.Page) (farms.Paged[farms.Farm], error) {
	out := farms.Paged[farms.Farm]{Page: page.Number, PerPage: page.Size}

	if err := s.db.QueryRowContext(ctx, s.query(`SELECT COUNT(*) FROM farms WHERE owner_user_id = ?`),
		ownerUserID).Scan(&out.Total); err != nil {
		return out, s.d.mapError(err)
	}

	items, err := s.listFarms(ctx, `
		SELECT `+farmColumns+` FROM farms
		WHERE owner_user_id = ?
		ORDER BY created_at, id
		LIMIT ? OFFSET ?`, ownerUserID, page.Size, page.Offset())
	if err != nil {
		return out, err
	}
	out.Items = items
	return out, nil
}

func (s *Store) ListOpenFarms(ctx context.Context, ownerUserID string) ([]farms.Farm, error) {
	return s.listFarms(ctx, `
		SELECT `+farmColumns+` FROM farms f
		WHERE f.owner_user_id = ?
		  AND (SELECT COUNT(*) FROM farm_animals a WHERE a.farm_id = f.id) < ?
		ORDER BY f.created_at, f.id`, ownerUserID, farms.MaxAnimalsPerFarm)
}

func (s *Store) ListAnimalsByOwner(ctx context.Context, ownerUserID string, page farms.Page) (farms.Paged[farms.AnimalWithFarm], error) {
	out := farms.Paged[farms.AnimalWithFarm]{Page: page.Number, PerPage: page.Size, Items: []farms.AnimalWithFarm{}}

	if err := s.db.QueryRowContext(ctx, s.query(`
		SELECT COUNT(*) FROM farm_animals a
		JOIN farms f ON f.id = a.farm_id
		WHERE f.owner_user_id = ?`), ownerUserID).Scan(&out.Total); err != nil {
		return out, s.d.mapError(err)
	}

	rows, err := s.db.QueryContext(ctx, s.query(`
		SELECT a.id, a.farm_id, a.animal_number, a.type_name, a.years, a.created_at, a.updated_at,
		       f.name, f.owner_user_id
		FROM farm_animals a
		JOIN farms f ON f.id = a.farm_id
		WHERE f.owner_user_id = ?
		ORDER BY a.created_at, a.animal_number
		LIMIT ? OFFSET ?`), ownerUserID, page.Size, page.Offset())
	if err != nil {
		return out, s.d.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAnimalWithFarm(rows)
		if err != nil {
			return out, err
		}
		out.Items = append(out.Items, a)
	}
	return out, rows.Err()
}

func scanAnimalWithFarm(s scanner) (farms.AnimalWithFarm, error) {
	var (
		out   farms.AnimalWithFarm
		years sql.NullInt64
	)
	a := &out.Animal
	if err := s.Scan(&a.ID, &a.FarmID, &a.AnimalNumber, &a.TypeName, &years, &a.CreatedAt, &a.UpdatedAt,
		&out.Farm.Name, &out.Farm.OwnerUserID); err != nil {
		return farms.AnimalWithFarm{}, err
	}
	if years.Valid {
		y := int(years.Int64)
		a.Years = &y
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	out.Farm.ID = a.FarmID
	return out, nil
}

var (
	_ farms.Repository    = (*Store)(nil)
	_ farms.Tx            = (*sqlTx)(nil)
	_ shares.Repository   = (*ShareRepo)(nil)
	_ activity.Repository = (*ActivityRepo)(nil)
)
