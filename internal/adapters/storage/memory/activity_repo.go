package memory

import (
	"context"
	"sort"

	"farm-registry/internal/domain/activity"
)

type ActivityRepo struct {
	store *Store
}

func (r *ActivityRepo) ListByFarm(ctx context.Context, farmID string, filter activity.ListFilter) ([]activity.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	filter = filter.Normalize()

	// Recorremos al revés: a igual timestamp queda primero lo último escrito.
	out := make([]activity.Entry, 0)
	for i := len(r.store.st.activity) - 1; i >= 0; i-- {
		e := r.store.st.activity[i]
		if e.FarmID == farmID && filter.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
