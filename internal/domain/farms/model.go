package farms

import (
	"math"
	"time"
)

// MaxAnimalsPerFarm es el tope de animales por granja (se valida al escribir, no se guarda un contador).
const MaxAnimalsPerFarm = 3

// AnimalType define los tipos de animal conocidos.
// El store solo exige presencia; la lista sirve para UI y seed.
type AnimalType string

const (
	AnimalCow     AnimalType = "Cow"
	AnimalSheep   AnimalType = "Sheep"
	AnimalHorse   AnimalType = "Horse"
	AnimalPig     AnimalType = "Pig"
	AnimalChicken AnimalType = "Chicken"
)

// AnimalTypes devuelve los tipos conocidos en orden estable.
func AnimalTypes() []AnimalType {
	return []AnimalType{AnimalCow, AnimalSheep, AnimalHorse, AnimalPig, AnimalChicken}
}

// Farm es el recurso raíz. OwnerUserID no cambia después de crearse.
type Farm struct {
	ID          string
	OwnerUserID string

	Name    string
	Email   string
	Website string // opcional

	// Animals solo se completa en lecturas que lo piden (view/list).
	Animals []Animal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Animal pertenece a exactamente una granja. El dueño efectivo es el dueño de la granja.
type Animal struct {
	ID     string
	FarmID string

	AnimalNumber string // único global
	TypeName     string
	Years        *int // 0..20, opcional

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AnimalWithFarm se usa en listados y detalle de animales.
type AnimalWithFarm struct {
	Animal
	Farm FarmSummary
}

// FarmSummary es la vista mínima de la granja que acompaña a un animal.
type FarmSummary struct {
	ID          string
	Name        string
	OwnerUserID string
}

// Page describe una página pedida (1-based).
type Page struct {
	Number int
	Size   int
}

// Offset calcula el offset SQL de la página. Satura en math.MaxInt.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Paged envuelve un resultado paginado.
type Paged[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int
}
