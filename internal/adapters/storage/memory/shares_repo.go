package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"farm-registry/internal/domain/shares"
)

type ShareRepo struct {
	store *Store
}

func (r *ShareRepo) Create(ctx context.Context, sh shares.Share) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if strings.TrimSpace(sh.ID) == "" {
		return errors.New("share id required")
	}
	if _, exists := r.store.st.shares[sh.ID]; exists {
		return errors.New("share already exists")
	}
	// FK a farms
	if _, ok := r.store.st.farms[sh.FarmID]; !ok {
		return shares.ErrNotFound
	}
	r.store.st.shares[sh.ID] = cloneShare(sh)
	return nil
}

func (r *ShareRepo) Update(ctx context.Context, sh shares.Share) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.st.shares[sh.ID]; !exists {
		return shares.ErrNotFound
	}
	r.store.st.shares[sh.ID] = cloneShare(sh)
	return nil
}

func (r *ShareRepo) GetByID(ctx context.Context, id string) (shares.Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sh, ok := r.store.st.shares[id]
	if !ok {
		return shares.Share{}, shares.ErrNotFound
	}
	return cloneShare(sh), nil
}

func (r *ShareRepo) ListByFarm(ctx context.Context, farmID string) ([]shares.Share, error) {
	return r.list(func(sh shares.Share) bool { return sh.FarmID == farmID }), nil
}

func (r *ShareRepo) ListByGrantee(ctx context.Context, granteeUserID string) ([]shares.Share, error) {
	return r.list(func(sh shares.Share) bool { return sh.GranteeUserID == granteeUserID }), nil
}

func (r *ShareRepo) list(keep func(shares.Share) bool) []shares.Share {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]shares.Share, 0)
	for _, sh := range r.store.st.shares {
		if keep(sh) {
			out = append(out, cloneShare(sh))
		}
	}
	// más reciente primero
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneShare(sh shares.Share) shares.Share {
	sh.Scopes = append([]shares.Scope(nil), sh.Scopes...)
	if sh.RevokedAt != nil {
		t := *sh.RevokedAt
		sh.RevokedAt = &t
	}
	return sh
}
