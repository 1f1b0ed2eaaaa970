package farms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farm-registry/internal/domain/activity"
)

// CreateFarm inserta la granja y su lote inicial de animales en una sola transacción.
func (s *Service) CreateFarm(ctx context.Context, ownerUserID string, in CreateFarmInput) (f Farm, err error) {
	defer s.observe("create_farm", time.Now(), &err)

	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return Farm{}, ErrForbidden
	}
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Farm{}, err
	}

	now := s.now()
	farm := Farm{
		ID:          s.newID(),
		OwnerUserID: ownerUserID,
		Name:        in.Name,
		Email:       in.Email,
		Website:     in.Website,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.write(ctx, func(tx Tx) error {
		taken, err := tx.EmailTaken(ctx, farm.Email, "")
		if err != nil {
			return err
		}
		if taken {
			return &DuplicateKeyError{Field: "email", Value: farm.Email}
		}

		if err := tx.CreateFarm(ctx, farm); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, activity.NewEntry(farm.ID, activity.EntryFarmCreated, ownerUserID, "",
			fmt.Sprintf("farm %q created", farm.Name), now)); err != nil {
			return err
		}

		for i, a := range in.Animals {
			animal := s.newAnimal(farm.ID, a.AnimalNumber, a.TypeName, a.Years, now)
			if err := s.insertAnimal(ctx, tx, ownerUserID, animal); err != nil {
				return rosterField(err, i)
			}
			farm.Animals = append(farm.Animals, animal)
		}
		return nil
	})
	if err != nil {
		return Farm{}, err
	}

	s.log.Info("farm created", map[string]any{"farm_id": farm.ID, "animals": len(farm.Animals)})
	return farm, nil
}

// UpdateFarm actualiza la granja y reconcilia el roster:
//   - id de un animal de esta granja: se edita en el lugar
//   - sin id: alta (pasa por la regla de capacidad)
//   - id que no es de esta granja: se ignora (queda en el log)
func (s *Service) UpdateFarm(ctx context.Context, userID, farmID string, in UpdateFarmInput) (f Farm, err error) {
	defer s.observe("update_farm", time.Now(), &err)

	userID = strings.TrimSpace(userID)
	farmID = strings.TrimSpace(farmID)
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Farm{}, err
	}
	if len(in.Animals) == 0 {
		return Farm{}, ErrEmptyRoster
	}

	now := s.now()
	var out Farm

	err = s.write(ctx, func(tx Tx) error {
		if err := AuthorizeFarm(ctx, tx, userID, farmID, ActionModify); err != nil {
			return err
		}

		farm, err := tx.GetFarm(ctx, farmID)
		if err != nil {
			return err
		}

		taken, err := tx.EmailTaken(ctx, in.Email, farmID)
		if err != nil {
			return err
		}
		if taken {
			return &DuplicateKeyError{Field: "email", Value: in.Email}
		}

		farm.Name = in.Name
		farm.Email = in.Email
		farm.Website = in.Website
		farm.UpdatedAt = now
		if err := tx.UpdateFarm(ctx, farm); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, activity.NewEntry(farmID, activity.EntryFarmUpdated, userID, "",
			"farm details updated", now)); err != nil {
			return err
		}

		for i, a := range in.Animals {
			if a.ID == "" {
				animal := s.newAnimal(farmID, a.AnimalNumber, a.TypeName, a.Years, now)
				if err := s.insertAnimal(ctx, tx, userID, animal); err != nil {
					return rosterField(err, i)
				}
				continue
			}

			current, err := tx.GetAnimal(ctx, a.ID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if err != nil || current.FarmID != farmID {
				s.log.Warn("roster entry skipped: animal does not belong to farm", map[string]any{
					"farm_id":   farmID,
					"animal_id": a.ID,
				})
				continue
			}

			current.AnimalNumber = a.AnimalNumber
			current.TypeName = a.TypeName
			current.Years = a.Years
			current.UpdatedAt = now
			if err := s.saveAnimal(ctx, tx, userID, current, activity.EntryAnimalUpdated); err != nil {
				return rosterField(err, i)
			}
		}

		out, err = tx.GetFarm(ctx, farmID)
		return err
	})
	if err != nil {
		return Farm{}, err
	}
	return out, nil
}

// DeleteFarm borra la granja; animales, shares y actividad caen en cascada.
func (s *Service) DeleteFarm(ctx context.Context, userID, farmID string) (err error) {
	defer s.observe("delete_farm", time.Now(), &err)

	userID = strings.TrimSpace(userID)
	farmID = strings.TrimSpace(farmID)

	err = s.write(ctx, func(tx Tx) error {
		if err := AuthorizeFarm(ctx, tx, userID, farmID, ActionModify); err != nil {
			return err
		}
		return tx.DeleteFarm(ctx, farmID)
	})
	if err != nil {
		return err
	}

	s.log.Info("farm deleted", map[string]any{"farm_id": farmID})
	return nil
}

func (s *Service) GetFarm(ctx context.Context, userID, farmID string) (Farm, error) {
	userID = strings.TrimSpace(userID)
	farmID = strings.TrimSpace(farmID)
	if err := AuthorizeFarm(ctx, s.repo, userID, farmID, ActionView); err != nil {
		return Farm{}, classify(err)
	}
	f, err := s.repo.GetFarm(ctx, farmID)
	if errors.Is(err, ErrNotFound) {
		return Farm{}, notFound(string(ResourceFarm), farmID)
	}
	return f, classify(err)
}

// ListFarms devuelve las granjas propias, con sus animales.
func (s *Service) ListFarms(ctx context.Context, userID string, page int) (Paged[Farm], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Paged[Farm]{}, ErrForbidden
	}
	out, err := s.repo.ListFarmsByOwner(ctx, userID, s.page(page))
	return out, classify(err)
}

// ListOpenFarms son las granjas propias a las que todavía se les puede agregar un animal.
func (s *Service) ListOpenFarms(ctx context.Context, userID string) ([]Farm, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrForbidden
	}
	out, err := s.repo.ListOpenFarms(ctx, userID)
	return out, classify(err)
}

// rosterField ubica un DuplicateKeyError dentro del roster ("animals.1.animal_number").
func rosterField(err error, i int) error {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) && !strings.HasPrefix(dup.Field, "animals.") {
		return &DuplicateKeyError{Field: fmt.Sprintf("animals.%d.%s", i, dup.Field), Value: dup.Value}
	}
	return err
}
