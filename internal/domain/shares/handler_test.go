package shares

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"farm-registry/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFarms: f1 es de owner y "vet" la ve por share; f-broken falla al resolver visibilidad.
type fakeFarms struct{}

func (fakeFarms) OwnerOf(_ context.Context, farmID string) (string, error) {
	switch farmID {
	case "f1", "f-broken":
		return "owner", nil
	}
	return "", errors.New("no rows")
}

func (fakeFarms) CanView(_ context.Context, userID, farmID string) (bool, error) {
	if farmID == "f-broken" {
		return false, errors.New("db down")
	}
	return farmID == "f1" && (userID == "owner" || userID == "vet"), nil
}

type testEnvelope struct {
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message"`
}

func newTestRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.AuthContext(nil))
	RegisterRoutes(r, NewService(newTestRepo()), fakeFarms{})
	return r
}

func serve(t *testing.T, h http.Handler, method, url, user string, payload any) (int, testEnvelope) {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, url, &body)
	if user != "" {
		req.Header.Set(middleware.DebugUserHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestFarmShares_VisibilityDecidesStatus(t *testing.T) {
	h := newTestRouter()

	cases := []struct {
		name    string
		method  string
		url     string
		user    string
		status  int
		message string
	}{
		{"anon", http.MethodGet, "/farms/f1/shares", "", http.StatusUnauthorized, "Unauthenticated."},
		{"stranger list", http.MethodGet, "/farms/f1/shares", "stranger", http.StatusNotFound, "Farm not found."},
		{"stranger invite", http.MethodPost, "/farms/f1/shares", "stranger", http.StatusNotFound, "Farm not found."},
		{"missing farm", http.MethodGet, "/farms/nope/shares", "owner", http.StatusNotFound, "Farm not found."},
		{"reader list", http.MethodGet, "/farms/f1/shares", "vet", http.StatusForbidden, "This action is unauthorized."},
		{"reader invite", http.MethodPost, "/farms/f1/shares", "vet", http.StatusForbidden, "This action is unauthorized."},
		{"lookup failure", http.MethodGet, "/farms/f-broken/shares", "stranger", http.StatusInternalServerError, "Something went wrong. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, env := serve(t, h, tc.method, tc.url, tc.user, map[string]any{"grantee_user_id": "someone"})
			assert.Equal(t, tc.status, st)
			assert.Equal(t, tc.message, env.Message)
			assert.Equal(t, "null", string(env.Data))
		})
	}
}

func TestFarmShares_OwnerFlowUsesEnvelope(t *testing.T) {
	h := newTestRouter()

	st, env := serve(t, h, http.MethodPost, "/farms/f1/shares", "owner", map[string]any{"grantee_user_id": "vet"})
	require.Equal(t, http.StatusCreated, st)
	assert.Equal(t, "Farm shared successfully!", env.Message)
	var created shareResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StatusInvited, created.Status)

	st, env = serve(t, h, http.MethodPost, "/farms/f1/shares", "owner", map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, st)
	assert.Contains(t, env.Errors, "grantee_user_id")

	st, env = serve(t, h, http.MethodGet, "/farms/f1/shares", "owner", nil)
	require.Equal(t, http.StatusOK, st)
	var listed []shareResponse
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)

	st, env = serve(t, h, http.MethodPost, "/shares/"+created.ID+"/accept", "vet", nil)
	require.Equal(t, http.StatusOK, st)
	var accepted shareResponse
	require.NoError(t, json.Unmarshal(env.Data, &accepted))
	assert.Equal(t, StatusActive, accepted.Status)

	st, env = serve(t, h, http.MethodPost, "/shares/missing/accept", "vet", nil)
	assert.Equal(t, http.StatusNotFound, st)
	assert.Equal(t, "Share not found.", env.Message)
}
