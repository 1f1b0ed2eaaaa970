package memory

import (
	"context"
	"sort"

	"farm-registry/internal/domain/activity"
	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"
)

// state es todo lo persistido. Las granjas se guardan sin Animals; se arman al leer.
type state struct {
	farms    map[string]farms.Farm
	animals  map[string]farms.Animal
	shares   map[string]shares.Share
	activity []activity.Entry
}

func newState() *state {
	return &state{
		farms:   map[string]farms.Farm{},
		animals: map[string]farms.Animal{},
		shares:  map[string]shares.Share{},
	}
}

func (s *state) clone() *state {
	c := &state{
		farms:    make(map[string]farms.Farm, len(s.farms)),
		animals:  make(map[string]farms.Animal, len(s.animals)),
		shares:   make(map[string]shares.Share, len(s.shares)),
		activity: append([]activity.Entry(nil), s.activity...),
	}
	for k, v := range s.farms {
		c.farms[k] = v
	}
	for k, v := range s.animals {
		c.animals[k] = v
	}
	for k, v := range s.shares {
		c.shares[k] = v
	}
	return c
}

func (s *state) FarmOwner(ctx context.Context, farmID string) (string, error) {
	f, ok := s.farms[farmID]
	if !ok {
		return "", farms.ErrNotFound
	}
	return f.OwnerUserID, nil
}

func (s *state) AnimalOwner(ctx context.Context, animalID string) (farms.AnimalOwnership, error) {
	a, ok := s.animals[animalID]
	if !ok {
		return farms.AnimalOwnership{}, farms.ErrNotFound
	}
	f, ok := s.farms[a.FarmID]
	if !ok {
		return farms.AnimalOwnership{}, farms.ErrNotFound
	}
	return farms.AnimalOwnership{AnimalID: a.ID, FarmID: f.ID, OwnerUserID: f.OwnerUserID}, nil
}

func (s *state) HasReadShare(ctx context.Context, farmID, userID string) (bool, error) {
	for _, sh := range s.shares {
		if sh.FarmID == farmID && sh.GranteeUserID == userID &&
			sh.Status == shares.StatusActive && sh.HasScope(shares.ScopeFarmRead) {
			return true, nil
		}
	}
	return false, nil
}

func (s *state) GetFarm(ctx context.Context, farmID string) (farms.Farm, error) {
	f, ok := s.farms[farmID]
	if !ok {
		return farms.Farm{}, farms.ErrNotFound
	}
	f.Animals = s.animalsOf(farmID)
	return f, nil
}

func (s *state) GetAnimal(ctx context.Context, animalID string) (farms.Animal, error) {
	a, ok := s.animals[animalID]
	if !ok {
		return farms.Animal{}, farms.ErrNotFound
	}
	return a, nil
}

func (s *state) CountAnimals(ctx context.Context, farmID string) (int, error) {
	n := 0
	for _, a := range s.animals {
		if a.FarmID == farmID {
			n++
		}
	}
	return n, nil
}

func (s *state) EmailTaken(ctx context.Context, email, exceptFarmID string) (bool, error) {
	for _, f := range s.farms {
		if f.Email == email && f.ID != exceptFarmID {
			return true, nil
		}
	}
	return false, nil
}

func (s *state) AnimalNumberTaken(ctx context.Context, number, exceptAnimalID string) (bool, error) {
	for _, a := range s.animals {
		if a.AnimalNumber == number && a.ID != exceptAnimalID {
			return true, nil
		}
	}
	return false, nil
}

// Los writes replican los constraints de la base (unique + FK) para que el store
// se comporte igual que SQL si el pre-check se saltea.

func (s *state) CreateFarm(ctx context.Context, f farms.Farm) error {
	if _, exists := s.farms[f.ID]; exists {
		return &farms.DuplicateKeyError{Field: "id", Value: f.ID}
	}
	if taken, _ := s.EmailTaken(ctx, f.Email, ""); taken {
		return &farms.DuplicateKeyError{Field: "email", Value: f.Email}
	}
	f.Animals = nil
	s.farms[f.ID] = f
	return nil
}

func (s *state) UpdateFarm(ctx context.Context, f farms.Farm) error {
	current, ok := s.farms[f.ID]
	if !ok {
		return farms.ErrNotFound
	}
	if taken, _ := s.EmailTaken(ctx, f.Email, f.ID); taken {
		return &farms.DuplicateKeyError{Field: "email", Value: f.Email}
	}
	f.OwnerUserID = current.OwnerUserID
	f.CreatedAt = current.CreatedAt
	f.Animals = nil
	s.farms[f.ID] = f
	return nil
}

func (s *state) DeleteFarm(ctx context.Context, farmID string) error {
	if _, ok := s.farms[farmID]; !ok {
		return farms.ErrNotFound
	}
	delete(s.farms, farmID)

	for id, a := range s.animals {
		if a.FarmID == farmID {
			delete(s.animals, id)
		}
	}
	for id, sh := range s.shares {
		if sh.FarmID == farmID {
			delete(s.shares, id)
		}
	}
	kept := s.activity[:0]
	for _, e := range s.activity {
		if e.FarmID != farmID {
			kept = append(kept, e)
		}
	}
	s.activity = kept
	return nil
}

func (s *state) CreateAnimal(ctx context.Context, a farms.Animal) error {
	if _, ok := s.farms[a.FarmID]; !ok {
		return farms.ErrNotFound
	}
	if _, exists := s.animals[a.ID]; exists {
		return &farms.DuplicateKeyError{Field: "id", Value: a.ID}
	}
	if taken, _ := s.AnimalNumberTaken(ctx, a.AnimalNumber, ""); taken {
		return &farms.DuplicateKeyError{Field: "animal_number", Value: a.AnimalNumber}
	}
	s.animals[a.ID] = a
	return nil
}

func (s *state) UpdateAnimal(ctx context.Context, a farms.Animal) error {
	current, ok := s.animals[a.ID]
	if !ok {
		return farms.ErrNotFound
	}
	if _, ok := s.farms[a.FarmID]; !ok {
		return farms.ErrNotFound
	}
	if taken, _ := s.AnimalNumberTaken(ctx, a.AnimalNumber, a.ID); taken {
		return &farms.DuplicateKeyError{Field: "animal_number", Value: a.AnimalNumber}
	}
	a.CreatedAt = current.CreatedAt
	s.animals[a.ID] = a
	return nil
}

func (s *state) DeleteAnimal(ctx context.Context, animalID string) error {
	if _, ok := s.animals[animalID]; !ok {
		return farms.ErrNotFound
	}
	delete(s.animals, animalID)
	return nil
}

func (s *state) AppendActivity(ctx context.Context, e activity.Entry) error {
	if _, ok := s.farms[e.FarmID]; !ok {
		return farms.ErrNotFound
	}
	s.activity = append(s.activity, e)
	return nil
}

func (s *state) farmsOf(ownerUserID string) []farms.Farm {
	out := make([]farms.Farm, 0)
	for _, f := range s.farms {
		if f.OwnerUserID == ownerUserID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// animalsOf ordena por created_at y después animal_number (mismo orden que SQL).
func (s *state) animalsOf(farmID string) []farms.Animal {
	out := make([]farms.Animal, 0)
	for _, a := range s.animals {
		if a.FarmID == farmID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return animalLess(out[i], out[j]) })
	return out
}

func animalLess(a, b farms.Animal) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.AnimalNumber < b.AnimalNumber
}
