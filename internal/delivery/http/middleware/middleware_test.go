package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoActor(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActorFromContext(r.Context())
		require.True(t, ok)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": actor.ID, "role": string(actor.Role)})
	})
}

func serve(h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestActorMiddleware_Identify(t *testing.T) {
	h := NewActorMiddleware().Identify(echoActor(t))

	tests := []struct {
		name     string
		headers  map[string]string
		wantCode int
		wantRole string
	}{
		{"missing id", map[string]string{}, http.StatusUnauthorized, ""},
		{"defaults to customer", map[string]string{ActorIDHeader: "cust-1"}, http.StatusOK, "customer"},
		{"provider", map[string]string{ActorIDHeader: "clinic", ActorRoleHeader: "Provider"}, http.StatusOK, "provider"},
		{"system cannot be claimed", map[string]string{ActorIDHeader: "x", ActorRoleHeader: "system"}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.headers)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantRole != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantRole, body["role"])
			}
		})
	}
}

func TestRequireProvider(t *testing.T) {
	h := NewActorMiddleware().Identify(RequireProvider(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	assert.Equal(t, http.StatusForbidden, serve(h, map[string]string{ActorIDHeader: "cust-1"}).Code)
	assert.Equal(t, http.StatusNoContent, serve(h, map[string]string{ActorIDHeader: "clinic", ActorRoleHeader: "provider"}).Code)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	h := NewCORSMiddleware().Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), ActorIDHeader)
}
