package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"farm-registry/internal/domain/activity"
	"farm-registry/internal/domain/farms"
)

// sqlTx implementa farms.Tx. Las lecturas de ownership bloquean la fila (Postgres).
type sqlTx struct {
	conn
}

func (t *sqlTx) GetAnimal(ctx context.Context, animalID string) (farms.Animal, error) {
	return t.getAnimal(ctx, animalID)
}

func (t *sqlTx) CountAnimals(ctx context.Context, farmID string) (int, error) {
	var n int
	if err := t.q.QueryRowContext(ctx, t.query(`SELECT COUNT(*) FROM farm_animals WHERE farm_id = ?`), farmID).Scan(&n); err != nil {
		return 0, t.d.mapError(err)
	}
	return n, nil
}

func (t *sqlTx) EmailTaken(ctx context.Context, email, exceptFarmID string) (bool, error) {
	return t.exists(ctx, `SELECT 1 FROM farms WHERE email = ? AND id <> ?`, email, exceptFarmID)
}

func (t *sqlTx) AnimalNumberTaken(ctx context.Context, number, exceptAnimalID string) (bool, error) {
	return t.exists(ctx, `SELECT 1 FROM farm_animals WHERE animal_number = ? AND id <> ?`, number, exceptAnimalID)
}

func (t *sqlTx) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	err := t.q.QueryRowContext(ctx, t.query(q+` LIMIT 1`), args...).Scan(&one)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, t.d.mapError(err)
	}
	return true, nil
}

func (t *sqlTx) CreateFarm(ctx context.Context, f farms.Farm) error {
	_, err := t.q.ExecContext(ctx, t.query(`
		INSERT INTO farms (`+farmColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		f.ID, f.OwnerUserID, f.Name, f.Email, f.Website, f.CreatedAt.UTC(), f.UpdatedAt.UTC())
	return t.d.mapError(err)
}

// UpdateFarm nunca toca owner_user_id.
func (t *sqlTx) UpdateFarm(ctx context.Context, f farms.Farm) error {
	res, err := t.q.ExecContext(ctx, t.query(`
		UPDATE farms
		SET name = ?, email = ?, website = ?, updated_at = ?
		WHERE id = ?`),
		f.Name, f.Email, f.Website, f.UpdatedAt.UTC(), f.ID)
	return t.affected(res, err)
}

// DeleteFarm: animales, shares y actividad caen por ON DELETE CASCADE.
func (t *sqlTx) DeleteFarm(ctx context.Context, farmID string) error {
	res, err := t.q.ExecContext(ctx, t.query(`DELETE FROM farms WHERE id = ?`), farmID)
	return t.affected(res, err)
}

func (t *sqlTx) CreateAnimal(ctx context.Context, a farms.Animal) error {
	_, err := t.q.ExecContext(ctx, t.query(`
		INSERT INTO farm_animals (`+animalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.FarmID, a.AnimalNumber, a.TypeName, nullYears(a.Years), a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	return t.d.mapError(err)
}

func (t *sqlTx) UpdateAnimal(ctx context.Context, a farms.Animal) error {
	res, err := t.q.ExecContext(ctx, t.query(`
		UPDATE farm_animals
		SET farm_id = ?, animal_number = ?, type_name = ?, years = ?, updated_at = ?
		WHERE id = ?`),
		a.FarmID, a.AnimalNumber, a.TypeName, nullYears(a.Years), a.UpdatedAt.UTC(), a.ID)
	return t.affected(res, err)
}

func (t *sqlTx) DeleteAnimal(ctx context.Context, animalID string) error {
	res, err := t.q.ExecContext(ctx, t.query(`DELETE FROM farm_animals WHERE id = ?`), animalID)
	return t.affected(res, err)
}

func (t *sqlTx) AppendActivity(ctx context.Context, e activity.Entry) error {
	_, err := t.q.ExecContext(ctx, t.query(`
		INSERT INTO farm_activity (id, farm_id, type, actor_user_id, animal_id, summary, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.FarmID, string(e.Type), e.ActorUserID, strings.TrimSpace(e.AnimalID), e.Summary, e.OccurredAt.UTC())
	return t.d.mapError(err)
}

func (t *sqlTx) affected(res sql.Result, err error) error {
	if err != nil {
		return t.d.mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return farms.ErrNotFound
	}
	return nil
}
