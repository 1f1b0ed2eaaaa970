package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"farm-registry/internal/platform/config"
	"farm-registry/internal/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message"`
	Meta    *struct {
		Page    int `json:"page"`
		PerPage int `json:"per_page"`
		Total   int `json:"total"`
	} `json:"meta"`
}

type farmBody struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Animals []struct {
		ID           string `json:"id"`
		AnimalNumber string `json:"animal_number"`
		Years        *int   `json:"years"`
	} `json:"animals"`
}

func newServer(t *testing.T, opts router.Options) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_FarmLifecycleAndSharing(t *testing.T) {
	ts := newServer(t, router.Options{})

	ownerID := "owner-1"
	vetID := "vet-1"

	// 1) Owner crea la granja con dos animales
	farm := createFarm(t, ts.URL, ownerID, map[string]any{
		"name":    "Sunny Farm",
		"email":   "sunny@farm.test",
		"website": "https://sunny.farm",
		"animals": []map[string]any{
			{"type_name": "Cow", "animal_number": "101", "years": 5},
			{"type_name": "Sheep", "animal_number": "102", "years": 3},
		},
	})
	require.Len(t, farm.Animals, 2)

	// 2) Tercer animal entra, el cuarto no
	{
		st, env := doReq(t, ts.URL, "POST", "/animals", ownerID, map[string]any{
			"farm_id": farm.ID, "type_name": "Pig", "animal_number": "103",
		})
		require.Equal(t, http.StatusCreated, st)
		assert.Equal(t, "Animal created successfully!", env.Message)
	}
	{
		st, env := doReq(t, ts.URL, "POST", "/animals", ownerID, map[string]any{
			"farm_id": farm.ID, "type_name": "Horse", "animal_number": "104",
		})
		require.Equal(t, http.StatusConflict, st)
		assert.Contains(t, env.Errors, "farm_id")
	}

	// 3) Un extraño no ve la granja
	{
		st, env := doReq(t, ts.URL, "GET", "/farms/"+farm.ID, vetID, nil)
		require.Equal(t, http.StatusNotFound, st)
		assert.Equal(t, "Farm not found.", env.Message)
	}

	// 3b) Tampoco sabe que existe por el endpoint de shares
	for _, method := range []string{"GET", "POST"} {
		st, env := doReq(t, ts.URL, method, "/farms/"+farm.ID+"/shares", vetID, map[string]any{"grantee_user_id": vetID})
		require.Equal(t, http.StatusNotFound, st, method)
		assert.Equal(t, "Farm not found.", env.Message)
	}

	// 4) Owner comparte, el vet acepta
	shareID := inviteShare(t, ts.URL, ownerID, farm.ID, vetID)
	{
		req, _ := http.NewRequest("POST", ts.URL+"/shares/"+shareID+"/accept", nil)
		req.Header.Set("X-Debug-User-ID", vetID)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// 5) El vet ve la granja y el journal, pero no puede tocar nada
	{
		st, _ := doReq(t, ts.URL, "GET", "/farms/"+farm.ID, vetID, nil)
		require.Equal(t, http.StatusOK, st)
	}
	{
		st, body := doRaw(t, ts.URL, "GET", "/farms/"+farm.ID+"/activity?type=ANIMAL_ADDED", vetID, nil)
		require.Equal(t, http.StatusOK, st)
		var feed struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &feed))
		assert.Len(t, feed.Data, 3)
	}
	{
		st, env := doReq(t, ts.URL, "DELETE", "/farms/"+farm.ID, vetID, nil)
		require.Equal(t, http.StatusForbidden, st)
		assert.Equal(t, "This action is unauthorized.", env.Message)
	}
	{
		st, env := doReq(t, ts.URL, "GET", "/farms/"+farm.ID+"/shares", vetID, nil)
		require.Equal(t, http.StatusForbidden, st)
		assert.Equal(t, "This action is unauthorized.", env.Message)
	}

	// 6) Owner revoca: el vet deja de ver la granja
	{
		req, _ := http.NewRequest("POST", ts.URL+"/shares/"+shareID+"/revoke", nil)
		req.Header.Set("X-Debug-User-ID", ownerID)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/farms/"+farm.ID, vetID, nil)
		require.Equal(t, http.StatusNotFound, st)
	}

	// 7) Owner borra; los animales caen con la granja
	{
		st, env := doReq(t, ts.URL, "DELETE", "/farms/"+farm.ID, ownerID, nil)
		require.Equal(t, http.StatusOK, st)
		assert.Equal(t, "Farm deleted successfully!", env.Message)
	}
	{
		st, env := doReq(t, ts.URL, "GET", "/animals", ownerID, nil)
		require.Equal(t, http.StatusOK, st)
		require.NotNil(t, env.Meta)
		assert.Zero(t, env.Meta.Total)
	}
}

func TestHTTP_UpdateFarmRoster(t *testing.T) {
	ts := newServer(t, router.Options{})
	ownerID := "owner-1"

	farm := createFarm(t, ts.URL, ownerID, map[string]any{
		"name":  "Sunny Farm",
		"email": "sunny@farm.test",
		"animals": []map[string]any{
			{"type_name": "Cow", "animal_number": "101", "years": 5},
		},
	})

	// roster vacío => 422
	{
		st, env := doReq(t, ts.URL, "PUT", "/farms/"+farm.ID, ownerID, map[string]any{
			"name": "Sunny", "email": "sunny@farm.test", "animals": []any{},
		})
		require.Equal(t, http.StatusUnprocessableEntity, st)
		assert.Equal(t, "No animals found in request.", env.Message)
	}

	// edita el existente y agrega uno
	st, env := doReq(t, ts.URL, "PUT", "/farms/"+farm.ID, ownerID, map[string]any{
		"name":  "Sunny Farm II",
		"email": "sunny@farm.test",
		"animals": []map[string]any{
			{"id": farm.Animals[0].ID, "type_name": "Cow", "animal_number": "101", "years": 6},
			{"type_name": "Horse", "animal_number": "105"},
		},
	})
	require.Equal(t, http.StatusOK, st)
	assert.Equal(t, "Farm details updated successfully!", env.Message)

	var out farmBody
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "Sunny Farm II", out.Name)
	require.Len(t, out.Animals, 2)
}

func TestHTTP_ErrorMapping(t *testing.T) {
	ts := newServer(t, router.Options{})
	ownerID := "owner-1"

	// sin identidad => 401
	{
		st, env := doReq(t, ts.URL, "GET", "/farms", "", nil)
		require.Equal(t, http.StatusUnauthorized, st)
		assert.Equal(t, "Unauthenticated.", env.Message)
	}

	// JSON roto => 400
	{
		req, _ := http.NewRequest("POST", ts.URL+"/farms", bytes.NewBufferString("{"))
		req.Header.Set("X-Debug-User-ID", ownerID)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	// validación => 422 con la clave del campo
	{
		st, env := doReq(t, ts.URL, "POST", "/farms", ownerID, map[string]any{
			"name":  "Bad",
			"email": "nope",
			"animals": []map[string]any{
				{"type_name": "Cow", "animal_number": "101", "years": 30},
			},
		})
		require.Equal(t, http.StatusUnprocessableEntity, st)
		assert.Equal(t, "The given data was invalid.", env.Message)
		assert.Contains(t, env.Errors, "email")
		assert.Contains(t, env.Errors, "animals.0.years")
	}

	// duplicado => 409
	createFarm(t, ts.URL, ownerID, map[string]any{"name": "A", "email": "a@farm.test"})
	{
		st, env := doReq(t, ts.URL, "POST", "/farms", ownerID, map[string]any{"name": "B", "email": "a@farm.test"})
		require.Equal(t, http.StatusConflict, st)
		assert.Contains(t, env.Errors, "email")
	}

	// animal inexistente => 404
	{
		st, env := doReq(t, ts.URL, "GET", "/animals/does-not-exist", ownerID, nil)
		require.Equal(t, http.StatusNotFound, st)
		assert.Equal(t, "Animal not found.", env.Message)
	}
}

func TestHTTP_HugePageIsEmpty(t *testing.T) {
	ts := newServer(t, router.Options{})

	createFarm(t, ts.URL, "u1", map[string]any{
		"name":    "Sunny Farm",
		"email":   "sunny@farm.test",
		"animals": []map[string]any{{"type_name": "Cow", "animal_number": "101"}},
	})

	for _, path := range []string{"/farms", "/animals"} {
		for _, page := range []string{"2", "922337203685477581", "9223372036854775807"} {
			st, env := doReq(t, ts.URL, "GET", path+"?page="+page, "u1", nil)
			require.Equal(t, http.StatusOK, st, path+"?page="+page)
			assert.JSONEq(t, "[]", string(env.Data))
			require.NotNil(t, env.Meta)
			assert.Equal(t, 1, env.Meta.Total)
		}
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ts := newServer(t, router.Options{Registry: reg})

	st, body := doRaw(t, ts.URL, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Equal(t, "ok", string(body))

	createFarm(t, ts.URL, "owner-1", map[string]any{"name": "A", "email": "a@farm.test"})

	st, body = doRaw(t, ts.URL, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), `farm_registry_writes_total{op="create_farm",outcome="ok"} 1`)
}

func TestHTTP_SQLiteStorage(t *testing.T) {
	store, err := router.OpenStorage(context.Background(), config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ts := newServer(t, router.Options{Storage: store})

	farm := createFarm(t, ts.URL, "owner-1", map[string]any{
		"name":  "Sunny Farm",
		"email": "sunny@farm.test",
		"animals": []map[string]any{
			{"type_name": "Cow", "animal_number": "101"},
			{"type_name": "Sheep", "animal_number": "102"},
			{"type_name": "Pig", "animal_number": "103"},
		},
	})
	require.Len(t, farm.Animals, 3)

	st, _ := doReq(t, ts.URL, "POST", "/animals", "owner-1", map[string]any{
		"farm_id": farm.ID, "type_name": "Horse", "animal_number": "104",
	})
	require.Equal(t, http.StatusConflict, st)

	st, env := doReq(t, ts.URL, "GET", "/me/farms/open", "owner-1", nil)
	require.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := router.OpenStorage(context.Background(), config.Database{Driver: "mongo"})
	assert.Error(t, err)
}

func createFarm(t *testing.T, baseURL, userID string, payload map[string]any) farmBody {
	t.Helper()

	st, env := doReq(t, baseURL, "POST", "/farms", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create farm, got %d errors=%v", st, env.Errors)
	}
	if env.Message != "New farm created successfully!" {
		t.Fatalf("unexpected message %q", env.Message)
	}

	var out farmBody
	_ = json.Unmarshal(env.Data, &out)
	if out.ID == "" {
		t.Fatalf("create farm: missing id data=%s", string(env.Data))
	}
	return out
}

func inviteShare(t *testing.T, baseURL, ownerID, farmID, granteeID string) string {
	t.Helper()

	st, body := doRaw(t, baseURL, "POST", "/farms/"+farmID+"/shares", ownerID, map[string]any{
		"grantee_user_id": granteeID,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 invite share, got %d body=%s", st, string(body))
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Data.ID == "" {
		t.Fatalf("invite share: missing id body=%s", string(body))
	}
	return resp.Data.ID
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, envelope) {
	t.Helper()

	st, body := doRaw(t, baseURL, method, path, userID, payload)
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("%s %s: body is not an envelope: %s", method, path, string(body))
	}
	return st, env
}

func doRaw(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
