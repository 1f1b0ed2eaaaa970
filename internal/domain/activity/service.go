package activity

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("farm not found")
)

// FarmViewer evita importar farms (rompe ciclos): farms.Service lo implementa.
// false = la granja no existe o no es visible para userID.
type FarmViewer interface {
	CanView(ctx context.Context, userID, farmID string) (bool, error)
}

type Service struct {
	repo   Repository
	viewer FarmViewer
}

func NewService(repo Repository, viewer FarmViewer) *Service {
	return &Service{repo: repo, viewer: viewer}
}

// List devuelve el journal de la granja, más reciente primero. Mismas reglas de lectura
// que ver la granja.
func (s *Service) List(ctx context.Context, userID, farmID string, filter ListFilter) ([]Entry, error) {
	userID = strings.TrimSpace(userID)
	farmID = strings.TrimSpace(farmID)
	if userID == "" || farmID == "" {
		return nil, ErrInvalidInput
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, ErrInvalidInput
		}
	}

	ok, err := s.viewer.CanView(ctx, userID, farmID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.repo.ListByFarm(ctx, farmID, filter.Normalize())
}
