package farms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AnimalInput es una entrada del roster. ID vacío = alta; con ID = edición en el lugar.
type AnimalInput struct {
	ID           string `json:"id"`
	AnimalNumber string `json:"animal_number" validate:"required,number,max=32"`
	TypeName     string `json:"type_name" validate:"required,max=64"`
	Years        *int   `json:"years" validate:"omitempty,min=0,max=20"`
}

type CreateFarmInput struct {
	Name    string        `json:"name" validate:"required,max=255"`
	Email   string        `json:"email" validate:"required,email,max=255"`
	Website string        `json:"website" validate:"omitempty,url,max=255"`
	Animals []AnimalInput `json:"animals" validate:"max=3,dive"`
}

// UpdateFarmInput: el roster vacío no es un error de validación sino ErrEmptyRoster.
type UpdateFarmInput struct {
	Name    string        `json:"name" validate:"required,max=255"`
	Email   string        `json:"email" validate:"required,email,max=255"`
	Website string        `json:"website" validate:"omitempty,url,max=255"`
	Animals []AnimalInput `json:"animals" validate:"dive"`
}

type CreateAnimalInput struct {
	FarmID       string `json:"farm_id" validate:"required"`
	AnimalNumber string `json:"animal_number" validate:"required,number,max=32"`
	TypeName     string `json:"type_name" validate:"required,max=64"`
	Years        *int   `json:"years" validate:"omitempty,min=0,max=20"`
}

// UpdateAnimalInput: si FarmID cambia es una mudanza.
type UpdateAnimalInput struct {
	FarmID       string `json:"farm_id" validate:"required"`
	AnimalNumber string `json:"animal_number" validate:"required,number,max=32"`
	TypeName     string `json:"type_name" validate:"required,max=64"`
	Years        *int   `json:"years" validate:"omitempty,min=0,max=20"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores salen con el nombre JSON del campo.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (a AnimalInput) normalized() AnimalInput {
	a.ID = strings.TrimSpace(a.ID)
	a.AnimalNumber = strings.TrimSpace(a.AnimalNumber)
	a.TypeName = strings.TrimSpace(a.TypeName)
	return a
}

func normalizeFarmFields(name, email, website string) (string, string, string) {
	return strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(website)
}

func normalizeRoster(in []AnimalInput) []AnimalInput {
	out := make([]AnimalInput, 0, len(in))
	for _, a := range in {
		out = append(out, a.normalized())
	}
	return out
}

func (in CreateFarmInput) normalized() CreateFarmInput {
	in.Name, in.Email, in.Website = normalizeFarmFields(in.Name, in.Email, in.Website)
	in.Animals = normalizeRoster(in.Animals)
	return in
}

func (in UpdateFarmInput) normalized() UpdateFarmInput {
	in.Name, in.Email, in.Website = normalizeFarmFields(in.Name, in.Email, in.Website)
	in.Animals = normalizeRoster(in.Animals)
	return in
}

func (in CreateAnimalInput) normalized() CreateAnimalInput {
	in.FarmID = strings.TrimSpace(in.FarmID)
	in.AnimalNumber = strings.TrimSpace(in.AnimalNumber)
	in.TypeName = strings.TrimSpace(in.TypeName)
	return in
}

func (in UpdateAnimalInput) normalized() UpdateAnimalInput {
	in.FarmID = strings.TrimSpace(in.FarmID)
	in.AnimalNumber = strings.TrimSpace(in.AnimalNumber)
	in.TypeName = strings.TrimSpace(in.TypeName)
	return in
}

// validateInput corre el validator y junta todo en un solo ValidationErrors.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := ValidationErrors{}
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		if _, exists := out[field]; exists {
			continue
		}
		out[field] = message(fe)
	}
	return out
}

// fieldPath convierte "CreateFarmInput.animals[0].years" en "animals.0.years".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func message(fe validator.FieldError) string {
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "url":
		return fmt.Sprintf("The %s format is invalid.", name)
	case "number":
		return fmt.Sprintf("The %s must be a number.", name)
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("The %s must have at least %s items.", name, fe.Param())
		case reflect.String:
			return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", name, fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("The %s may not have more than %s items.", name, fe.Param())
		case reflect.String:
			return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}
