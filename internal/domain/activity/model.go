package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry es una línea del journal de una granja. Se escribe en la misma transacción que
// el cambio que describe; si la transacción hace rollback, la entrada desaparece.
type Entry struct {
	ID     string
	FarmID string

	Type EntryType

	ActorUserID string
	AnimalID    string // vacío para eventos de granja
	Summary     string

	OccurredAt time.Time
}

func NewEntry(farmID string, typ EntryType, actorUserID, animalID, summary string, at time.Time) Entry {
	return Entry{
		ID:          uuid.NewString(),
		FarmID:      farmID,
		Type:        typ,
		ActorUserID: actorUserID,
		AnimalID:    animalID,
		Summary:     summary,
		OccurredAt:  at,
	}
}
