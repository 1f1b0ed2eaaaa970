package farms

import "context"

// AnimalCounter lo implementa Tx.
type AnimalCounter interface {
	CountAnimals(ctx context.Context, farmID string) (int, error)
}

// CanAddAnimal evalúa la regla de capacidad. Tiene que correr en la misma Tx que el insert.
func CanAddAnimal(ctx context.Context, c AnimalCounter, farmID string) (bool, error) {
	n, err := c.CountAnimals(ctx, farmID)
	if err != nil {
		return false, err
	}
	return n < MaxAnimalsPerFarm, nil
}

func ensureCapacity(ctx context.Context, c AnimalCounter, farmID string) error {
	ok, err := CanAddAnimal(ctx, c, farmID)
	if err != nil {
		return err
	}
	if !ok {
		return &CapacityError{FarmID: farmID}
	}
	return nil
}
