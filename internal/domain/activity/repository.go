package activity

import "context"

// Repository es solo lectura: las escrituras entran por la transacción de farms.
type Repository interface {
	ListByFarm(ctx context.Context, farmID string, filter ListFilter) ([]Entry, error)
}

type ListFilter struct {
	Types []EntryType
	Limit int
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Normalize aplica default y tope al limit.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

// Matches se usa en el store en memoria.
func (f ListFilter) Matches(e Entry) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == e.Type {
			return true
		}
	}
	return false
}
