package farms

import (
	"context"

	"farm-registry/internal/domain/activity"
)

// AnimalOwnership es el join animal -> granja -> dueño que usa el guard.
type AnimalOwnership struct {
	AnimalID    string
	FarmID      string
	OwnerUserID string
}

// AccessLookup es todo lo que el guard necesita leer del store.
// Los adapters devuelven ErrNotFound si el recurso no existe.
type AccessLookup interface {
	// FarmOwner dentro de una Tx bloquea la fila de la granja hasta el commit.
	FarmOwner(ctx context.Context, farmID string) (string, error)
	AnimalOwner(ctx context.Context, animalID string) (AnimalOwnership, error)
	// HasReadShare indica si userID tiene un share activo con scope farm:read.
	HasReadShare(ctx context.Context, farmID, userID string) (bool, error)
}

// Repository es el Entity Store. Las lecturas van directo; toda escritura pasa por WithinTx.
type Repository interface {
	AccessLookup

	// GetFarm incluye los animales.
	GetFarm(ctx context.Context, farmID string) (Farm, error)
	ListFarmsByOwner(ctx context.Context, ownerUserID string, page Page) (Paged[Farm], error)
	// ListOpenFarms devuelve las granjas del dueño con menos de MaxAnimalsPerFarm animales.
	ListOpenFarms(ctx context.Context, ownerUserID string) ([]Farm, error)

	GetAnimal(ctx context.Context, animalID string) (AnimalWithFarm, error)
	ListAnimalsByOwner(ctx context.Context, ownerUserID string, page Page) (Paged[AnimalWithFarm], error)

	// WithinTx corre fn en una transacción: si fn devuelve error se hace rollback completo.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx es la vista transaccional del store. Nada de lo escrito es visible fuera hasta el commit.
type Tx interface {
	AccessLookup

	GetFarm(ctx context.Context, farmID string) (Farm, error)
	GetAnimal(ctx context.Context, animalID string) (Animal, error)
	CountAnimals(ctx context.Context, farmID string) (int, error)

	// exceptID vacío = no excluir a nadie.
	EmailTaken(ctx context.Context, email, exceptFarmID string) (bool, error)
	AnimalNumberTaken(ctx context.Context, number, exceptAnimalID string) (bool, error)

	CreateFarm(ctx context.Context, f Farm) error
	UpdateFarm(ctx context.Context, f Farm) error
	// DeleteFarm borra en cascada animales, shares y actividad.
	DeleteFarm(ctx context.Context, farmID string) error

	CreateAnimal(ctx context.Context, a Animal) error
	UpdateAnimal(ctx context.Context, a Animal) error
	DeleteAnimal(ctx context.Context, animalID string) error

	AppendActivity(ctx context.Context, e activity.Entry) error
}
