package farms

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func toAnimalWithFarmResponse(a AnimalWithFarm) animalResponse {
	out := toAnimalResponse(a.Animal)
	out.Farm = &farmSummaryResponse{
		ID:          a.Farm.ID,
		Name:        a.Farm.Name,
		OwnerUserID: a.Farm.OwnerUserID,
	}
	return out
}

// listAnimals godoc
// @Summary Mis animales
// @Description Animales de todas las granjas del usuario, paginados, con su granja.
// @Tags animals
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param page query int false "Página (1-based)"
// @Success 200 {object} envelope
// @Router /animals [get]
func (h *handlers) listAnimals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.svc.ListAnimals(r.Context(), userID, pageParam(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]animalResponse, 0, len(res.Items))
	for _, a := range res.Items {
		out = append(out, toAnimalWithFarmResponse(a))
	}
	writeJSON(w, http.StatusOK, envelope{
		Data:   out,
		Errors: map[string]string{},
		Meta:   &pageMeta{Page: res.Page, PerPage: res.PerPage, Total: res.Total},
	})
}

// createAnimal godoc
// @Summary Agregar animal
// @Description Agrega un animal a una granja propia. Máximo 3 por granja.
// @Tags animals
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param body body CreateAnimalInput true "Animal"
// @Success 201 {object} envelope
// @Failure 404 {object} envelope
// @Failure 409 {object} envelope "granja llena o número duplicado"
// @Failure 422 {object} envelope
// @Router /animals [post]
func (h *handlers) createAnimal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in CreateAnimalInput
	if !decodeJSON(w, r, &in) {
		return
	}

	a, err := h.svc.CreateAnimal(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Data: toAnimalResponse(a), Errors: map[string]string{}, Message: msgAnimalCreated})
}

func (h *handlers) getAnimal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	a, err := h.svc.GetAnimal(r.Context(), userID, chi.URLParam(r, "animalID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: toAnimalWithFarmResponse(a), Errors: map[string]string{}})
}

// updateAnimal godoc
// @Summary Editar o mudar animal
// @Description Si farm_id cambia, el destino tiene que ser propio y tener lugar.
// @Tags animals
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param animalID path string true "ID del animal"
// @Param body body UpdateAnimalInput true "Animal"
// @Success 200 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Failure 409 {object} envelope
// @Router /animals/{animalID} [put]
func (h *handlers) updateAnimal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in UpdateAnimalInput
	if !decodeJSON(w, r, &in) {
		return
	}

	a, err := h.svc.UpdateAnimal(r.Context(), userID, chi.URLParam(r, "animalID"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: toAnimalResponse(a), Errors: map[string]string{}, Message: msgAnimalUpdated})
}

func (h *handlers) deleteAnimal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteAnimal(r.Context(), userID, chi.URLParam(r, "animalID")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Errors: map[string]string{}, Message: msgAnimalDeleted})
}
