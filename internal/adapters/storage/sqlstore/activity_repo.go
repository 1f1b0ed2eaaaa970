package sqlstore

import (
	"context"
	"strings"

	"farm-registry/internal/domain/activity"
)

type ActivityRepo struct {
	conn
}

func (r *ActivityRepo) ListByFarm(ctx context.Context, farmID string, filter activity.ListFilter) ([]activity.Entry, error) {
	filter = filter.Normalize()

	q := `SELECT id, farm_id, type, actor_user_id, animal_id, summary, occurred_at
		FROM farm_activity
		WHERE farm_id = ?`
	args := []any{farmID}

	if len(filter.Types) > 0 {
		marks := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			marks = append(marks, "?")
			args = append(args, string(t))
		}
		q += ` AND type IN (` + strings.Join(marks, ",") + `)`
	}
	q += ` ORDER BY occurred_at DESC, seq DESC LIMIT ?`
	args = append(args, filter.Limit)

	rows, err := r.q.QueryContext(ctx, r.query(q), args...)
	if err != nil {
		return nil, r.d.mapError(err)
	}
	defer rows.Close()

	out := make([]activity.Entry, 0)
	for rows.Next() {
		var (
			e   activity.Entry
			typ string
		)
		if err := rows.Scan(&e.ID, &e.FarmID, &typ, &e.ActorUserID, &e.AnimalID, &e.Summary, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Type = activity.EntryType(typ)
		e.OccurredAt = e.OccurredAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
