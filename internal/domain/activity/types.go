package activity

type EntryType string

const (
	EntryFarmCreated    EntryType = "FARM_CREATED"
	EntryFarmUpdated    EntryType = "FARM_UPDATED"
	EntryAnimalAdded    EntryType = "ANIMAL_ADDED"
	EntryAnimalUpdated  EntryType = "ANIMAL_UPDATED"
	EntryAnimalMovedIn  EntryType = "ANIMAL_MOVED_IN"
	EntryAnimalMovedOut EntryType = "ANIMAL_MOVED_OUT"
	EntryAnimalRemoved  EntryType = "ANIMAL_REMOVED"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryFarmCreated, EntryFarmUpdated,
		EntryAnimalAdded, EntryAnimalUpdated,
		EntryAnimalMovedIn, EntryAnimalMovedOut, EntryAnimalRemoved:
		return true
	default:
		return false
	}
}
