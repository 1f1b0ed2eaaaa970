package farms

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"farm-registry/internal/platform/logger"

	"github.com/google/uuid"
)

// Metrics lo implementa platform/metrics. nil = sin métricas.
type Metrics interface {
	ObserveWrite(op, outcome string, d time.Duration)
}

type Options struct {
	Logger   logger.Logger
	Metrics  Metrics
	PageSize int // default 10
}

const defaultPageSize = 10

type Service struct {
	repo     Repository
	log      logger.Logger
	metrics  Metrics
	pageSize int

	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	return &Service{
		repo:     repo,
		log:      log.With(map[string]any{"component": "farms"}),
		metrics:  opts.Metrics,
		pageSize: size,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Authorize expone el guard sobre el estado actual del store (fuera de transacción).
func (s *Service) Authorize(ctx context.Context, userID string, res Resource, id string, action Action) error {
	userID = strings.TrimSpace(userID)
	id = strings.TrimSpace(id)
	switch res {
	case ResourceFarm:
		return AuthorizeFarm(ctx, s.repo, userID, id, action)
	case ResourceAnimal:
		_, err := AuthorizeAnimal(ctx, s.repo, userID, id, action)
		return err
	default:
		return ErrInvalidInput
	}
}

// CanView implementa activity.FarmViewer.
func (s *Service) CanView(ctx context.Context, userID, farmID string) (bool, error) {
	err := AuthorizeFarm(ctx, s.repo, userID, farmID, ActionView)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// OwnerOf expone el dueño de una granja.
// Se usa para evitar ciclos de imports entre módulos (farms <-> shares).
func (s *Service) OwnerOf(ctx context.Context, farmID string) (string, error) {
	return s.repo.FarmOwner(ctx, strings.TrimSpace(farmID))
}

func (s *Service) page(number int) Page {
	if number < 1 {
		number = 1
	}
	// Tope para que (number-1)*size no desborde int.
	if last := math.MaxInt / s.pageSize; number > last {
		number = last
	}
	return Page{Number: number, Size: s.pageSize}
}

// write corre fn en una transacción y clasifica el error para el caller.
func (s *Service) write(ctx context.Context, fn func(tx Tx) error) error {
	err := classify(s.repo.WithinTx(ctx, fn))
	if errors.Is(err, ErrTransient) {
		s.log.Error("write rolled back", map[string]any{"error": err.Error()})
	}
	return err
}

// observe se llama con defer desde cada operación de escritura.
func (s *Service) observe(op string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveWrite(op, outcome(*err), time.Since(start))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrEmptyRoster), errors.Is(err, ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
