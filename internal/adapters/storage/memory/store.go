package memory

import (
	"context"
	"sort"
	"sync"

	"farm-registry/internal/domain/activity"
	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"
)

// Store es el store en memoria para dev y tests. Una transacción toma el lock de escritura,
// trabaja sobre una copia del estado y la publica solo si fn no devuelve error.
type Store struct {
	mu sync.RWMutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// Shares y Activity comparten el estado del Store (el borrado de una granja los arrastra).
func (s *Store) Shares() *ShareRepo      { return &ShareRepo{store: s} }
func (s *Store) Activity() *ActivityRepo { return &ActivityRepo{store: s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx farms.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) FarmOwner(ctx context.Context, farmID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.FarmOwner(ctx, farmID)
}

func (s *Store) AnimalOwner(ctx context.Context, animalID string) (farms.AnimalOwnership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.AnimalOwner(ctx, animalID)
}

func (s *Store) HasReadShare(ctx context.Context, farmID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.HasReadShare(ctx, farmID, userID)
}

func (s *Store) GetFarm(ctx context.Context, farmID string) (farms.Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetFarm(ctx, farmID)
}

func (s *Store) ListFarmsByOwner(ctx context.Context, ownerUserID string, page farms.Page) (farms.Paged[farms.Farm], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.st.farmsOf(ownerUserID)
	out := farms.Paged[farms.Farm]{Page: page.Number, PerPage: page.Size, Total: len(all), Items: []farms.Farm{}}
	for _, f := range window(all, page) {
		f.Animals = s.st.animalsOf(f.ID)
		out.Items = append(out.Items, f)
	}
	return out, nil
}

func (s *Store) ListOpenFarms(ctx context.Context, ownerUserID string) ([]farms.Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]farms.Farm, 0)
	for _, f := range s.st.farmsOf(ownerUserID) {
		f.Animals = s.st.animalsOf(f.ID)
		if len(f.Animals) < farms.MaxAnimalsPerFarm {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) GetAnimal(ctx context.Context, animalID string) (farms.AnimalWithFarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.st.animals[animalID]
	if !ok {
		return farms.AnimalWithFarm{}, farms.ErrNotFound
	}
	f := s.st.farms[a.FarmID]
	return farms.AnimalWithFarm{Animal: a, Farm: summary(f)}, nil
}

func (s *Store) ListAnimalsByOwner(ctx context.Context, ownerUserID string, page farms.Page) (farms.Paged[farms.AnimalWithFarm], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]farms.AnimalWithFarm, 0)
	for _, a := range s.st.animals {
		f, ok := s.st.farms[a.FarmID]
		if !ok || f.OwnerUserID != ownerUserID {
			continue
		}
		all = append(all, farms.AnimalWithFarm{Animal: a, Farm: summary(f)})
	}
	sort.Slice(all, func(i, j int) bool { return animalLess(all[i].Animal, all[j].Animal) })

	return farms.Paged[farms.AnimalWithFarm]{
		Items:   window(all, page),
		Page:    page.Number,
		PerPage: page.Size,
		Total:   len(all),
	}, nil
}

// memTx implementa farms.Tx sobre la copia de trabajo.
type memTx struct {
	*state
}

func summary(f farms.Farm) farms.FarmSummary {
	return farms.FarmSummary{ID: f.ID, Name: f.Name, OwnerUserID: f.OwnerUserID}
}

func window[T any](items []T, page farms.Page) []T {
	if page.Size <= 0 {
		return items
	}
	from := page.Offset()
	if from < 0 || from >= len(items) {
		return []T{}
	}
	to := from + page.Size
	if to < from || to > len(items) {
		to = len(items)
	}
	return items[from:to]
}

var (
	_ farms.Repository    = (*Store)(nil)
	_ farms.Tx            = (*memTx)(nil)
	_ shares.Repository   = (*ShareRepo)(nil)
	_ activity.Repository = (*ActivityRepo)(nil)
)
