package farms

import (
	"context"
	"errors"
)

type Action int

const (
	ActionView Action = iota
	ActionModify
)

type Resource string

const (
	ResourceFarm   Resource = "farm"
	ResourceAnimal Resource = "animal"
)

// AuthorizeFarm aplica la política de acceso sobre una granja:
//   - dueño: todo
//   - share activo farm:read: solo ver; mutar => ErrForbidden
//   - cualquier otro: NotFound (no se filtra la existencia)
func AuthorizeFarm(ctx context.Context, lk AccessLookup, userID, farmID string, action Action) error {
	owner, err := lk.FarmOwner(ctx, farmID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(string(ResourceFarm), farmID)
		}
		return err
	}
	return decide(ctx, lk, owner, userID, farmID, ResourceFarm, farmID, action)
}

// AuthorizeAnimal hace el join animal -> granja y aplica la misma política que la granja.
func AuthorizeAnimal(ctx context.Context, lk AccessLookup, userID, animalID string, action Action) (AnimalOwnership, error) {
	own, err := lk.AnimalOwner(ctx, animalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AnimalOwnership{}, notFound(string(ResourceAnimal), animalID)
		}
		return AnimalOwnership{}, err
	}
	if err := decide(ctx, lk, own.OwnerUserID, userID, own.FarmID, ResourceAnimal, animalID, action); err != nil {
		return AnimalOwnership{}, err
	}
	return own, nil
}

func decide(ctx context.Context, lk AccessLookup, ownerID, userID, farmID string, res Resource, id string, action Action) error {
	if userID == "" {
		return ErrForbidden
	}
	// Owner bypass
	if ownerID == userID {
		return nil
	}

	visible, err := lk.HasReadShare(ctx, farmID, userID)
	if err != nil {
		return err
	}
	if !visible {
		return notFound(string(res), id)
	}
	if action == ActionView {
		return nil
	}
	return ErrForbidden
}
