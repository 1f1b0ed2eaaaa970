package sqlstore

import (
	"context"

	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"
)

// conn tiene las lecturas comunes a Store (pool) y sqlTx (transacción).
type conn struct {
	q    querier
	d    Dialect
	lock string // FOR UPDATE solo dentro de una Tx
}

func (c conn) query(q string) string {
	return c.d.Rebind(q)
}

func (c conn) FarmOwner(ctx context.Context, farmID string) (string, error) {
	var owner string
	err := c.q.QueryRowContext(ctx, c.query(`SELECT owner_user_id FROM farms WHERE id = ?`+c.lock), farmID).Scan(&owner)
	if isNoRows(err) {
		return "", farms.ErrNotFound
	}
	if err != nil {
		return "", c.d.mapError(err)
	}
	return owner, nil
}

func (c conn) AnimalOwner(ctx context.Context, animalID string) (farms.AnimalOwnership, error) {
	var own farms.AnimalOwnership
	err := c.q.QueryRowContext(ctx, c.query(`
		SELECT a.id, f.id, f.owner_user_id
		FROM farm_animals a
		JOIN farms f ON f.id = a.farm_id
		WHERE a.id = ?`+c.lock), animalID).Scan(&own.AnimalID, &own.FarmID, &own.OwnerUserID)
	if isNoRows(err) {
		return farms.AnimalOwnership{}, farms.ErrNotFound
	}
	if err != nil {
		return farms.AnimalOwnership{}, c.d.mapError(err)
	}
	return own, nil
}

func (c conn) HasReadShare(ctx context.Context, farmID, userID string) (bool, error) {
	rows, err := c.q.QueryContext(ctx, c.query(`
		SELECT scopes FROM farm_shares
		WHERE farm_id = ? AND grantee_user_id = ? AND status = ?`),
		farmID, userID, string(shares.StatusActive))
	if err != nil {
		return false, c.d.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return false, err
		}
		sh := shares.Share{Scopes: decodeScopes(raw)}
		if sh.HasScope(shares.ScopeFarmRead) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// GetFarm incluye los animales.
func (c conn) GetFarm(ctx context.Context, farmID string) (farms.Farm, error) {
	f, err := scanFarm(c.q.QueryRowContext(ctx, c.query(`SELECT `+farmColumns+` FROM farms WHERE id = ?`), farmID))
	if isNoRows(err) {
		return farms.Farm{}, farms.ErrNotFound
	}
	if err != nil {
		return farms.Farm{}, c.d.mapError(err)
	}
	f.Animals, err = c.animalsOf(ctx, farmID)
	if err != nil {
		return farms.Farm{}, err
	}
	return f, nil
}

func (c conn) getAnimal(ctx context.Context, animalID string) (farms.Animal, error) {
	a, err := scanAnimal(c.q.QueryRowContext(ctx, c.query(`SELECT `+animalColumns+` FROM farm_animals WHERE id = ?`), animalID))
	if isNoRows(err) {
		return farms.Animal{}, farms.ErrNotFound
	}
	if err != nil {
		return farms.Animal{}, c.d.mapError(err)
	}
	return a, nil
}

func (c conn) animalsOf(ctx context.Context, farmID string) ([]farms.Animal, error) {
	rows, err := c.q.QueryContext(ctx, c.query(`
		SELECT `+animalColumns+` FROM farm_animals
		WHERE farm_id = ?
		ORDER BY created_at, animal_number`), farmID)
	if err != nil {
		return nil, c.d.mapError(err)
	}
	defer rows.Close()

	out := make([]farms.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (c conn) listFarms(ctx context.Context, q string, args ...any) ([]farms.Farm, error) {
	rows, err := c.q.QueryContext(ctx, c.query(q), args...)
	if err != nil {
		return nil, c.d.mapError(err)
	}

	out := make([]farms.Farm, 0)
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Cerramos antes de leer animales: SQLite trabaja con una sola conexión.
	rows.Close()

	for i := range out {
		if out[i].Animals, err = c.animalsOf(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
