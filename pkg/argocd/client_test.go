package argocd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/rollwatch/pkg/config"
	"github.com/cuemby/rollwatch/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(&config.Config{
		ArgoURL:      srv.URL,
		ArgoUser:     "watcher",
		ArgoPassword: "secret",
		SSLVerify:    true,
	})
	require.NoError(t, err)
	return client
}

func TestAuthenticateSuccess(t *testing.T) {
	var gotPayload map[string]string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/session", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]string{"token": "jwt-token"})
	}))

	require.NoError(t, client.Authenticate())
	assert.Equal(t, "watcher", gotPayload["username"])
	assert.Equal(t, "secret", gotPayload["password"])
	assert.Equal(t, "jwt-token", client.token)
}

func TestAuthenticateRejections(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))

			assert.ErrorIs(t, client.Authenticate(), tt.wantErr)
		})
	}
}

func TestAuthenticateNetworkFailureIsNotFatal(t *testing.T) {
	client, err := NewClient(&config.Config{
		ArgoURL:      "http://127.0.0.1:1",
		ArgoUser:     "watcher",
		ArgoPassword: "secret",
	})
	require.NoError(t, err)

	// transport failures leave the client unauthenticated but alive
	assert.NoError(t, client.Authenticate())
	assert.Empty(t, client.token)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"logged in", `{"loggedIn": true}`, http.StatusOK, types.HealthUp},
		{"logged out", `{"loggedIn": false}`, http.StatusOK, types.HealthDown},
		{"missing field", `{}`, http.StatusOK, types.HealthDown},
		{"malformed body", `not json`, http.StatusOK, types.HealthDown},
		{"service unavailable", `{}`, http.StatusServiceUnavailable, types.HealthDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/v1/session/userinfo", r.URL.Path)
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))

			assert.Equal(t, tt.want, client.Check())
		})
	}
}

func TestCheckUnreachable(t *testing.T) {
	client, err := NewClient(&config.Config{ArgoURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, types.HealthDown, client.Check())
}

func TestRefresh(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/applications/test_app", r.URL.Path)
		require.Equal(t, "normal", r.URL.Query().Get("refresh"))
		w.WriteHeader(http.StatusNotFound)
	}))

	code, err := client.Refresh("test_app")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetAppStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/applications/test_app", r.URL.Path)
		w.Write([]byte(`{
			"status": {
				"summary": {"images": ["example:latest", "sidecar:v1"]},
				"sync": {"status": "Synced"},
				"health": {"status": "Healthy"}
			}
		}`))
	}))

	status, err := client.GetAppStatus("test_app")
	require.NoError(t, err)
	require.NotNil(t, status)

	assert.Equal(t, []string{"example:latest", "sidecar:v1"}, status.Images)
	assert.Equal(t, "Synced", status.Synced)
	assert.Equal(t, "Healthy", status.Healthy)
}

func TestGetAppStatusNon200(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	status, err := client.GetAppStatus("test_app")
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestBearerTokenIsSent(t *testing.T) {
	var gotAuth string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"loggedIn": true}`))
	}))
	client.token = "jwt-token"

	client.Check()
	assert.Equal(t, "Bearer jwt-token", gotAuth)
}
