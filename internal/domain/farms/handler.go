package farms

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"farm-registry/internal/middleware"
	"farm-registry/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const (
	msgFarmCreated   = "New farm created successfully!"
	msgFarmUpdated   = "Farm details updated successfully!"
	msgFarmDeleted   = "Farm deleted successfully!"
	msgAnimalCreated = "Animal created successfully!"
	msgAnimalUpdated = "Animal updated successfully!"
	msgAnimalDeleted = "Animal deleted successfully!"

	msgInvalid   = "The given data was invalid."
	msgTransient = "Something went wrong. Please try again."
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	h := &handlers{svc: svc, log: log}

	// Granjas (dueño; lectura también con share farm:read)
	r.Route("/farms", func(fr chi.Router) {
		fr.Get("/", h.listFarms)
		fr.Post("/", h.createFarm)
		fr.Get("/{farmID}", h.getFarm)
		fr.Put("/{farmID}", h.updateFarm)
		fr.Delete("/{farmID}", h.deleteFarm)
	})

	// Granjas propias con lugar (alimenta el form de alta de animal)
	r.Get("/me/farms/open", h.listOpenFarms)

	r.Route("/animals", func(ar chi.Router) {
		ar.Get("/", h.listAnimals)
		ar.Post("/", h.createAnimal)
		ar.Get("/{animalID}", h.getAnimal)
		ar.Put("/{animalID}", h.updateAnimal)
		ar.Delete("/{animalID}", h.deleteAnimal)
	})
}

type handlers struct {
	svc *Service
	log logger.Logger
}

// envelope es la forma de todas las respuestas: {data, errors, message, meta}.
type envelope struct {
	Data    any               `json:"data"`
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message,omitempty"`
	Meta    *pageMeta         `json:"meta,omitempty"`
}

type pageMeta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

type farmResponse struct {
	ID          string           `json:"id"`
	OwnerUserID string           `json:"owner_user_id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Website     string           `json:"website,omitempty"`
	Animals     []animalResponse `json:"animals"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type farmSummaryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerUserID string `json:"owner_user_id"`
}

type animalResponse struct {
	ID           string               `json:"id"`
	FarmID       string               `json:"farm_id"`
	AnimalNumber string               `json:"animal_number"`
	TypeName     string               `json:"type_name"`
	Years        *int                 `json:"years"`
	Farm         *farmSummaryResponse `json:"farm,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// listFarms godoc
// @Summary Mis granjas
// @Description Granjas del usuario, paginadas, con sus animales.
// @Tags farms
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param page query int false "Página (1-based)"
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Router /farms [get]
func (h *handlers) listFarms(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.svc.ListFarms(r.Context(), userID, pageParam(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]farmResponse, 0, len(res.Items))
	for _, f := range res.Items {
		out = append(out, toFarmResponse(f))
	}
	writeJSON(w, http.StatusOK, envelope{
		Data:   out,
		Errors: map[string]string{},
		Meta:   &pageMeta{Page: res.Page, PerPage: res.PerPage, Total: res.Total},
	})
}

// createFarm godoc
// @Summary Crear granja
// @Description Crea la granja y hasta 3 animales en una sola transacción. El usuario queda como dueño.
// @Tags farms
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param body body CreateFarmInput true "Granja y animales"
// @Success 201 {object} envelope
// @Failure 400 {object} envelope
// @Failure 409 {object} envelope "email o número de animal duplicado"
// @Failure 422 {object} envelope
// @Router /farms [post]
func (h *handlers) createFarm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in CreateFarmInput
	if !decodeJSON(w, r, &in) {
		return
	}

	f, err := h.svc.CreateFarm(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Data: toFarmResponse(f), Errors: map[string]string{}, Message: msgFarmCreated})
}

// getFarm godoc
// @Summary Ver granja
// @Description Dueño o usuario con share activo `farm:read`.
// @Tags farms
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param farmID path string true "ID de la granja"
// @Success 200 {object} envelope
// @Failure 404 {object} envelope
// @Router /farms/{farmID} [get]
func (h *handlers) getFarm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	f, err := h.svc.GetFarm(r.Context(), userID, chi.URLParam(r, "farmID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: toFarmResponse(f), Errors: map[string]string{}})
}

// updateFarm godoc
// @Summary Actualizar granja
// @Description Actualiza datos y roster. Entradas sin id se dan de alta; ids ajenos se ignoran.
// @Tags farms
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param farmID path string true "ID de la granja"
// @Param body body UpdateFarmInput true "Granja y roster"
// @Success 200 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Failure 409 {object} envelope
// @Failure 422 {object} envelope
// @Router /farms/{farmID} [put]
func (h *handlers) updateFarm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in UpdateFarmInput
	if !decodeJSON(w, r, &in) {
		return
	}

	f, err := h.svc.UpdateFarm(r.Context(), userID, chi.URLParam(r, "farmID"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: toFarmResponse(f), Errors: map[string]string{}, Message: msgFarmUpdated})
}

func (h *handlers) deleteFarm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteFarm(r.Context(), userID, chi.URLParam(r, "farmID")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Errors: map[string]string{}, Message: msgFarmDeleted})
}

func (h *handlers) listOpenFarms(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.svc.ListOpenFarms(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]farmResponse, 0, len(items))
	for _, f := range items {
		out = append(out, toFarmResponse(f))
	}
	writeJSON(w, http.StatusOK, envelope{Data: out, Errors: map[string]string{}})
}

// writeError traduce errores de dominio a status + envelope.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	var (
		verrs ValidationErrors
		dup   *DuplicateKeyError
		full  *CapacityError
		nf    *NotFoundError
	)

	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{Errors: verrs, Message: msgInvalid})
	case errors.Is(err, ErrEmptyRoster):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{
			Errors:  map[string]string{"animals": "No animals found in request."},
			Message: "No animals found in request.",
		})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, envelope{
			Errors:  map[string]string{dup.Field: duplicateMessage(dup.Field)},
			Message: duplicateMessage(dup.Field),
		})
	case errors.As(err, &full):
		msg := "This farm already has the maximum number of animals (" + strconv.Itoa(MaxAnimalsPerFarm) + ")."
		writeJSON(w, http.StatusConflict, envelope{Errors: map[string]string{"farm_id": msg}, Message: msg})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, envelope{
			Errors:  map[string]string{},
			Message: strings.ToUpper(nf.Resource[:1]) + nf.Resource[1:] + " not found.",
		})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Errors: map[string]string{}, Message: "Not found."})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, envelope{Errors: map[string]string{}, Message: "This action is unauthorized."})
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, envelope{Errors: map[string]string{}, Message: msgInvalid})
	default:
		h.log.Error("request failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, envelope{Errors: map[string]string{}, Message: msgTransient})
	}
}

func duplicateMessage(field string) string {
	if strings.HasSuffix(field, "email") {
		return "The email has already been taken."
	}
	return "The animal number has already been taken."
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, envelope{Errors: map[string]string{}, Message: "Unauthenticated."})
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Errors: map[string]string{}, Message: "Malformed JSON body."})
		return false
	}
	return true
}

func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func toFarmResponse(f Farm) farmResponse {
	animals := make([]animalResponse, 0, len(f.Animals))
	for _, a := range f.Animals {
		animals = append(animals, toAnimalResponse(a))
	}
	return farmResponse{
		ID:          f.ID,
		OwnerUserID: f.OwnerUserID,
		Name:        f.Name,
		Email:       f.Email,
		Website:     f.Website,
		Animals:     animals,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:           a.ID,
		FarmID:       a.FarmID,
		AnimalNumber: a.AnimalNumber,
		TypeName:     a.TypeName,
		Years:        a.Years,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
