package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"farm-registry/internal/domain/farms"
)

const (
	FarmsPerOwner = 2

	// intentos por animal cuando el número sorteado ya existe
	maxAttempts = 5
)

// FarmCreator lo implementa farms.Service.
type FarmCreator interface {
	CreateFarm(ctx context.Context, ownerUserID string, in farms.CreateFarmInput) (farms.Farm, error)
}

type Seeder struct {
	farms FarmCreator
	rnd   *rand.Rand
}

func New(creator FarmCreator, rnd *rand.Rand) *Seeder {
	return &Seeder{farms: creator, rnd: rnd}
}

// Owner crea FarmsPerOwner granjas llenas (3 animales cada una) para el usuario.
func (s *Seeder) Owner(ctx context.Context, ownerUserID string) ([]farms.Farm, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, errors.New("seed: owner required")
	}

	out := make([]farms.Farm, 0, FarmsPerOwner)
	for i := 0; i < FarmsPerOwner; i++ {
		f, err := s.farm(ctx, ownerUserID)
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

// farm reintenta la granja entera si choca un email o un número de animal;
// la transacción deja todo como estaba.
func (s *Seeder) farm(ctx context.Context, ownerUserID string) (farms.Farm, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		f, err := s.farms.CreateFarm(ctx, ownerUserID, s.farmInput())
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, farms.ErrDuplicateKey) {
			return farms.Farm{}, err
		}
		lastErr = err
	}
	return farms.Farm{}, fmt.Errorf("seed: giving up after %d attempts: %w", maxAttempts, lastErr)
}

func (s *Seeder) farmInput() farms.CreateFarmInput {
	tag := s.digits(6)
	in := farms.CreateFarmInput{
		Name:    "Farm " + tag,
		Email:   "farm" + tag + "@example.test",
		Website: "https://farm" + tag + ".example.test",
	}

	types := farms.AnimalTypes()
	for i := 0; i < farms.MaxAnimalsPerFarm; i++ {
		years := s.rnd.Intn(21)
		in.Animals = append(in.Animals, farms.AnimalInput{
			AnimalNumber: s.digits(10),
			TypeName:     string(types[s.rnd.Intn(len(types))]),
			Years:        &years,
		})
	}
	return in
}

// digits: n dígitos, sin cero inicial.
func (s *Seeder) digits(n int) string {
	var b strings.Builder
	b.WriteByte(byte('1' + s.rnd.Intn(9)))
	for i := 1; i < n; i++ {
		b.WriteByte(byte('0' + s.rnd.Intn(10)))
	}
	return b.String()
}
