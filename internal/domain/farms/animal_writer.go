package farms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farm-registry/internal/domain/activity"
)

func (s *Service) newAnimal(farmID, number, typeName string, years *int, now time.Time) Animal {
	return Animal{
		ID:           s.newID(),
		FarmID:       farmID,
		AnimalNumber: number,
		TypeName:     typeName,
		Years:        years,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// insertAnimal: capacidad + unicidad + insert + journal, todo dentro de tx.
func (s *Service) insertAnimal(ctx context.Context, tx Tx, actorUserID string, a Animal) error {
	if err := ensureCapacity(ctx, tx, a.FarmID); err != nil {
		return err
	}
	if err := ensureNumberFree(ctx, tx, a.AnimalNumber, ""); err != nil {
		return err
	}
	if err := tx.CreateAnimal(ctx, a); err != nil {
		return err
	}
	return tx.AppendActivity(ctx, activity.NewEntry(a.FarmID, activity.EntryAnimalAdded, actorUserID, a.ID,
		fmt.Sprintf("%s #%s added", a.TypeName, a.AnimalNumber), a.UpdatedAt))
}

// saveAnimal actualiza un animal que se queda en su granja.
func (s *Service) saveAnimal(ctx context.Context, tx Tx, actorUserID string, a Animal, typ activity.EntryType) error {
	if err := ensureNumberFree(ctx, tx, a.AnimalNumber, a.ID); err != nil {
		return err
	}
	if err := tx.UpdateAnimal(ctx, a); err != nil {
		return err
	}
	return tx.AppendActivity(ctx, activity.NewEntry(a.FarmID, typ, actorUserID, a.ID,
		fmt.Sprintf("%s #%s updated", a.TypeName, a.AnimalNumber), a.UpdatedAt))
}

func ensureNumberFree(ctx context.Context, tx Tx, number, exceptAnimalID string) error {
	taken, err := tx.AnimalNumberTaken(ctx, number, exceptAnimalID)
	if err != nil {
		return err
	}
	if taken {
		return &DuplicateKeyError{Field: "animal_number", Value: number}
	}
	return nil
}

// CreateAnimal agrega un animal a una granja propia.
func (s *Service) CreateAnimal(ctx context.Context, userID string, in CreateAnimalInput) (a Animal, err error) {
	defer s.observe("create_animal", time.Now(), &err)

	userID = strings.TrimSpace(userID)
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Animal{}, err
	}

	animal := s.newAnimal(in.FarmID, in.AnimalNumber, in.TypeName, in.Years, s.now())

	err = s.write(ctx, func(tx Tx) error {
		if err := AuthorizeFarm(ctx, tx, userID, in.FarmID, ActionModify); err != nil {
			return err
		}
		return s.insertAnimal(ctx, tx, userID, animal)
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			s.log.Info("animal rejected: farm is full", map[string]any{"farm_id": in.FarmID})
		}
		return Animal{}, err
	}
	return animal, nil
}

// UpdateAnimal edita un animal. Si FarmID cambia, el destino tiene que ser del mismo
// usuario y tener lugar.
func (s *Service) UpdateAnimal(ctx context.Context, userID, animalID string, in UpdateAnimalInput) (a Animal, err error) {
	defer s.observe("update_animal", time.Now(), &err)

	userID = strings.TrimSpace(userID)
	animalID = strings.TrimSpace(animalID)
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Animal{}, err
	}

	now := s.now()
	var out Animal

	err = s.write(ctx, func(tx Tx) error {
		own, err := AuthorizeAnimal(ctx, tx, userID, animalID, ActionModify)
		if err != nil {
			return err
		}

		current, err := tx.GetAnimal(ctx, animalID)
		if err != nil {
			return err
		}
		current.AnimalNumber = in.AnimalNumber
		current.TypeName = in.TypeName
		current.Years = in.Years
		current.UpdatedAt = now

		if in.FarmID == own.FarmID {
			out = current
			return s.saveAnimal(ctx, tx, userID, current, activity.EntryAnimalUpdated)
		}

		// Mudanza: solo a una granja propia.
		if err := AuthorizeFarm(ctx, tx, userID, in.FarmID, ActionModify); err != nil {
			if errors.Is(err, ErrForbidden) {
				return notFound(string(ResourceFarm), in.FarmID)
			}
			return err
		}
		if err := ensureCapacity(ctx, tx, in.FarmID); err != nil {
			return err
		}
		if err := ensureNumberFree(ctx, tx, current.AnimalNumber, current.ID); err != nil {
			return err
		}

		current.FarmID = in.FarmID
		if err := tx.UpdateAnimal(ctx, current); err != nil {
			return err
		}

		label := fmt.Sprintf("%s #%s", current.TypeName, current.AnimalNumber)
		if err := tx.AppendActivity(ctx, activity.NewEntry(own.FarmID, activity.EntryAnimalMovedOut, userID, current.ID,
			label+" moved out", now)); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, activity.NewEntry(in.FarmID, activity.EntryAnimalMovedIn, userID, current.ID,
			label+" moved in", now)); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return Animal{}, err
	}
	return out, nil
}

// DeleteAnimal borra el animal. Un segundo delete devuelve NotFound.
func (s *Service) DeleteAnimal(ctx context.Context, userID, animalID string) (err error) {
	defer s.observe("delete_animal", time.Now(), &err)

	userID = strings.TrimSpace(userID)
	animalID = strings.TrimSpace(animalID)

	return s.write(ctx, func(tx Tx) error {
		own, err := AuthorizeAnimal(ctx, tx, userID, animalID, ActionModify)
		if err != nil {
			return err
		}
		current, err := tx.GetAnimal(ctx, animalID)
		if err != nil {
			return err
		}
		if err := tx.DeleteAnimal(ctx, animalID); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, activity.NewEntry(own.FarmID, activity.EntryAnimalRemoved, userID, animalID,
			fmt.Sprintf("%s #%s removed", current.TypeName, current.AnimalNumber), s.now()))
	})
}

// GetAnimal devuelve el animal con el resumen de su granja.
func (s *Service) GetAnimal(ctx context.Context, userID, animalID string) (AnimalWithFarm, error) {
	userID = strings.TrimSpace(userID)
	animalID = strings.TrimSpace(animalID)
	if _, err := AuthorizeAnimal(ctx, s.repo, userID, animalID, ActionView); err != nil {
		return AnimalWithFarm{}, classify(err)
	}
	a, err := s.repo.GetAnimal(ctx, animalID)
	if errors.Is(err, ErrNotFound) {
		return AnimalWithFarm{}, notFound(string(ResourceAnimal), animalID)
	}
	return a, classify(err)
}

// ListAnimals lista los animales de todas las granjas propias.
func (s *Service) ListAnimals(ctx context.Context, userID string, page int) (Paged[AnimalWithFarm], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Paged[AnimalWithFarm]{}, ErrForbidden
	}
	out, err := s.repo.ListAnimalsByOwner(ctx, userID, s.page(page))
	return out, classify(err)
}
