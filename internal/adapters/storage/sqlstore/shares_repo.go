package sqlstore

import (
	"context"
	"strings"

	"farm-registry/internal/domain/shares"
)

type ShareRepo struct {
	conn
}

func (r *ShareRepo) Create(ctx context.Context, sh shares.Share) error {
	_, err := r.q.ExecContext(ctx, r.query(`
		INSERT INTO farm_shares (`+shareColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sh.ID, sh.FarmID, sh.OwnerUserID, sh.GranteeUserID,
		encodeScopes(sh.Scopes), string(sh.Status),
		sh.CreatedAt.UTC(), sh.UpdatedAt.UTC(), nullTime(sh.RevokedAt),
	)
	return r.d.mapError(err)
}

func (r *ShareRepo) Update(ctx context.Context, sh shares.Share) error {
	res, err := r.q.ExecContext(ctx, r.query(`
		UPDATE farm_shares
		SET scopes = ?, status = ?, updated_at = ?, revoked_at = ?
		WHERE id = ?`),
		encodeScopes(sh.Scopes), string(sh.Status), sh.UpdatedAt.UTC(), nullTime(sh.RevokedAt), sh.ID,
	)
	if err != nil {
		return r.d.mapError(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return shares.ErrNotFound
	}
	return nil
}

func (r *ShareRepo) GetByID(ctx context.Context, id string) (shares.Share, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return shares.Share{}, shares.ErrNotFound
	}

	sh, err := scanShare(r.q.QueryRowContext(ctx, r.query(`SELECT `+shareColumns+` FROM farm_shares WHERE id = ?`), id))
	if isNoRows(err) {
		return shares.Share{}, shares.ErrNotFound
	}
	if err != nil {
		return shares.Share{}, r.d.mapError(err)
	}
	return sh, nil
}

func (r *ShareRepo) ListByFarm(ctx context.Context, farmID string) ([]shares.Share, error) {
	return r.list(ctx, `SELECT `+shareColumns+` FROM farm_shares WHERE farm_id = ? ORDER BY updated_at DESC, id`, farmID)
}

func (r *ShareRepo) ListByGrantee(ctx context.Context, granteeUserID string) ([]shares.Share, error) {
	return r.list(ctx, `SELECT `+shareColumns+` FROM farm_shares WHERE grantee_user_id = ? ORDER BY updated_at DESC, id`, granteeUserID)
}

func (r *ShareRepo) list(ctx context.Context, q string, args ...any) ([]shares.Share, error) {
	rows, err := r.q.QueryContext(ctx, r.query(q), args...)
	if err != nil {
		return nil, r.d.mapError(err)
	}
	defer rows.Close()

	out := make([]shares.Share, 0)
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}
