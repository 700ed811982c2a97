package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/pkg/client"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
				"user":          map[string]any{"id": 2, "email": "agent@example.com", "role": "staff"},
				"auth":          map[string]any{"token": "jwt"},
				"authenticated": true,
			}})
		case "/tickets":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
				{"id": 10, "title": "Cable", "status": "in_progress", "agent_id": 2, "customer_id": 7},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, srv *httptest.Server, state string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	full := append([]string{"--server", srv.URL, "--state", state}, args...)
	err := run(context.Background(), full, &out)
	return out.String(), err
}

func TestLoginWhoamiAndTickets(t *testing.T) {
	srv := fakeServer(t)
	state := filepath.Join(t.TempDir(), "state.json")

	out, err := runCLI(t, srv, state, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "/login")

	out, err = runCLI(t, srv, state, "login", "--email", "agent@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/agent/dashboard\n", out)

	out, err = runCLI(t, srv, state, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "agent@example.com (agent)")

	out, err = runCLI(t, srv, state, "tickets")
	require.NoError(t, err)
	assert.Contains(t, out, "Cable")
	assert.Contains(t, out, "in_progress")
}

func TestStatusResolvedPointsToResolve(t *testing.T) {
	srv := fakeServer(t)
	state := filepath.Join(t.TempDir(), "state.json")
	_, err := runCLI(t, srv, state, "login", "--email", "agent@example.com", "--password", "pw")
	require.NoError(t, err)

	_, err = runCLI(t, srv, state, "status", "10", "resolved")
	require.ErrorIs(t, err, client.ErrResolutionRequired)
	assert.Contains(t, err.Error(), "helpdeskctl resolve 10")
}

func TestUnknownCommand(t *testing.T) {
	srv := fakeServer(t)
	_, err := runCLI(t, srv, filepath.Join(t.TempDir(), "s.json"), "frobnicate")
	assert.ErrorContains(t, err, "unknown command")
}
