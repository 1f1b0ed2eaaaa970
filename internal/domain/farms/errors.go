package farms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrEmptyRoster      = errors.New("no animals found in request")
	ErrTransient        = errors.New("transient store failure")
)

// ValidationErrors agrupa errores por campo (nombres JSON, p.ej. "animals.0.years").
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrInvalidInput }

// DuplicateKeyError sale tanto del pre-check como del constraint del store al commit.
type DuplicateKeyError struct {
	Field string // email | animal_number
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s %q", e.Field, e.Value)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// CapacityError es un rechazo de negocio, no una falla del sistema.
type CapacityError struct {
	FarmID string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("farm %s already has the maximum number of animals (%d)", e.FarmID, MaxAnimalsPerFarm)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// NotFoundError identifica el recurso que no existe o no es visible.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// classify deja pasar errores de dominio y marca el resto como transitorio.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrDuplicateKey),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrEmptyRoster),
		errors.Is(err, ErrTransient):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
}
