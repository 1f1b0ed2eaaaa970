package shares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"farm-registry/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// FarmOwnerLookup evita importar el paquete farms (rompe ciclos).
// CanView decide 404 vs 403 para quien no es dueño.
type FarmOwnerLookup interface {
	OwnerOf(ctx context.Context, farmID string) (string, error)
	CanView(ctx context.Context, userID, farmID string) (bool, error)
}

func RegisterRoutes(r chi.Router, svc *Service, farmOwners FarmOwnerLookup) {
	// Dueño: shares de una granja
	r.Route("/farms/{farmID}/shares", func(fr chi.Router) {
		fr.Post("/", inviteShareHandler(svc, farmOwners))
		fr.Get("/", listSharesByFarmHandler(svc, farmOwners))
	})

	r.Route("/shares/{shareID}", func(sr chi.Router) {
		sr.Post("/accept", acceptShareHandler(svc))
		sr.Post("/revoke", revokeShareHandler(svc))
	})

	// Invitado: sus invitaciones / shares
	r.Get("/me/shares", listMySharesHandler(svc))
}

const (
	msgUnauthenticated = "Unauthenticated."
	msgForbidden       = "This action is unauthorized."
	msgFarmNotFound    = "Farm not found."
	msgShareNotFound   = "Share not found."
	msgInvalid         = "The given data was invalid."
	msgTransient       = "Something went wrong. Please try again."
	msgShareInvited    = "Farm shared successfully!"
)

// envelope replica la forma de respuesta de farms: {data, errors, message}.
type envelope struct {
	Data    any               `json:"data"`
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message,omitempty"`
}

type inviteShareRequest struct {
	GranteeUserID string  `json:"grantee_user_id"`
	Scopes        []Scope `json:"scopes"`
}

type shareResponse struct {
	ID            string     `json:"id"`
	FarmID        string     `json:"farm_id"`
	OwnerUserID   string     `json:"owner_user_id"`
	GranteeUserID string     `json:"grantee_user_id"`
	Scopes        []Scope    `json:"scopes"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
}

// requireFarmOwner corta con 404 si el caller no ve la granja y con 403 si
// la ve (share farm:read) pero no es dueño.
func requireFarmOwner(w http.ResponseWriter, r *http.Request, farmOwners FarmOwnerLookup, userID string) (string, bool) {
	farmID := strings.TrimSpace(chi.URLParam(r, "farmID"))

	ownerID, err := farmOwners.OwnerOf(r.Context(), farmID)
	if err != nil || strings.TrimSpace(ownerID) == "" {
		writeMessage(w, http.StatusNotFound, msgFarmNotFound)
		return "", false
	}
	if ownerID == userID {
		return farmID, true
	}

	visible, err := farmOwners.CanView(r.Context(), userID, farmID)
	switch {
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, msgTransient)
	case visible:
		writeMessage(w, http.StatusForbidden, msgForbidden)
	default:
		writeMessage(w, http.StatusNotFound, msgFarmNotFound)
	}
	return "", false
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		writeMessage(w, http.StatusUnauthorized, msgUnauthenticated)
		return "", false
	}
	return userID, true
}

// inviteShareHandler godoc
// @Summary Compartir granja
// @Description El dueño invita a otro usuario a ver la granja (scope `farm:read`).
// @Tags shares
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param farmID path string true "ID de la granja"
// @Param body body inviteShareRequest true "Invitado y scopes"
// @Success 201 {object} envelope{data=shareResponse}
// @Failure 400 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Failure 422 {object} envelope
// @Router /farms/{farmID}/shares [post]
func inviteShareHandler(svc *Service, farmOwners FarmOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		farmID, ok := requireFarmOwner(w, r, farmOwners, userID)
		if !ok {
			return
		}

		var req inviteShareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "Malformed JSON body.")
			return
		}
		if strings.TrimSpace(req.GranteeUserID) == "" {
			writeJSON(w, http.StatusUnprocessableEntity, envelope{
				Errors:  map[string]string{"grantee_user_id": "The grantee user id field is required."},
				Message: msgInvalid,
			})
			return
		}

		sh, err := svc.Invite(r.Context(), InviteInput{
			FarmID:        farmID,
			OwnerUserID:   userID,
			GranteeUserID: req.GranteeUserID,
			Scopes:        req.Scopes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, envelope{Data: toShareResponse(sh), Errors: map[string]string{}, Message: msgShareInvited})
	}
}

func listSharesByFarmHandler(svc *Service, farmOwners FarmOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		farmID, ok := requireFarmOwner(w, r, farmOwners, userID)
		if !ok {
			return
		}

		items, err := svc.ListByFarm(r.Context(), farmID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Data: toShareResponses(items), Errors: map[string]string{}})
	}
}

func listMySharesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		// status=invited,active (CSV opcional)
		items, err := svc.ListByGrantee(r.Context(), userID, parseStatusFilter(r.URL.Query().Get("status"))...)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Data: toShareResponses(items), Errors: map[string]string{}})
	}
}

func acceptShareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		sh, err := svc.Accept(r.Context(), chi.URLParam(r, "shareID"), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Data: toShareResponse(sh), Errors: map[string]string{}})
	}
}

func revokeShareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		sh, err := svc.Revoke(r.Context(), chi.URLParam(r, "shareID"), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Data: toShareResponse(sh), Errors: map[string]string{}})
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{
			Errors:  map[string]string{"share": err.Error()},
			Message: msgInvalid,
		})
	case errors.Is(err, ErrForbidden):
		writeMessage(w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, ErrNotFound):
		writeMessage(w, http.StatusNotFound, msgShareNotFound)
	case errors.Is(err, ErrBadState):
		writeJSON(w, http.StatusConflict, envelope{
			Errors:  map[string]string{"status": err.Error()},
			Message: err.Error(),
		})
	default:
		writeMessage(w, http.StatusInternalServerError, msgTransient)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Errors: map[string]string{}, Message: msg})
}

func toShareResponse(s Share) shareResponse {
	return shareResponse{
		ID:            s.ID,
		FarmID:        s.FarmID,
		OwnerUserID:   s.OwnerUserID,
		GranteeUserID: s.GranteeUserID,
		Scopes:        s.Scopes,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		RevokedAt:     s.RevokedAt,
	}
}

func toShareResponses(items []Share) []shareResponse {
	out := make([]shareResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toShareResponse(s))
	}
	return out
}

func parseStatusFilter(raw string) []Status {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []Status
	for _, p := range strings.Split(raw, ",") {
		if s := Status(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
