package activity

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

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Get("/farms/{farmID}/activity", listActivityHandler(svc, log))
}

// entryResponse es una entrada del journal de la granja.
type entryResponse struct {
	ID          string    `json:"id"`
	FarmID      string    `json:"farm_id"`
	Type        EntryType `json:"type"`
	ActorUserID string    `json:"actor_user_id"`
	AnimalID    string    `json:"animal_id,omitempty"`
	Summary     string    `json:"summary"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// envelope replica la forma de respuesta de farms: {data, errors, message}.
type envelope struct {
	Data    any               `json:"data"`
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message,omitempty"`
}

// listActivityHandler godoc
// @Summary Journal de la granja
// @Description Cambios registrados sobre la granja y sus animales, más reciente primero. Lo ve el dueño o quien tenga un share activo `farm:read`.
// @Tags activity
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param farmID path string true "ID de la granja"
// @Param type query string false "CSV de tipos (ej: ANIMAL_ADDED,ANIMAL_REMOVED)"
// @Param limit query int false "1-200, default 50"
// @Success 200 {object} envelope{data=[]entryResponse}
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 404 {object} envelope
// @Router /farms/{farmID}/activity [get]
func listActivityHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if userID == "" {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		farmID := chi.URLParam(r, "farmID")
		items, err := svc.List(r.Context(), userID, farmID, parseListFilter(r))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeJSON(w, http.StatusBadRequest, envelope{
					Errors:  map[string]string{"type": err.Error()},
					Message: "Invalid activity filter.",
				})
			case errors.Is(err, ErrNotFound):
				writeMessage(w, http.StatusNotFound, "Farm not found.")
			default:
				log.Error("list activity failed", map[string]any{"farm_id": farmID, "error": err.Error()})
				writeMessage(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, entryResponse{
				ID:          e.ID,
				FarmID:      e.FarmID,
				Type:        e.Type,
				ActorUserID: e.ActorUserID,
				AnimalID:    e.AnimalID,
				Summary:     e.Summary,
				OccurredAt:  e.OccurredAt,
			})
		}
		writeJSON(w, http.StatusOK, envelope{Data: out, Errors: map[string]string{}})
	}
}

func parseListFilter(r *http.Request) ListFilter {
	var filter ListFilter
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	// type=ANIMAL_ADDED,ANIMAL_REMOVED
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if t := EntryType(strings.TrimSpace(p)); t != "" {
				filter.Types = append(filter.Types, t)
			}
		}
	}
	return filter
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Errors: map[string]string{}, Message: msg})
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
