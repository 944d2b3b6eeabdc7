package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaUsesExistingSubject(t *testing.T) {
	var registerCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/subjects/companion_telemetry-value/versions/latest":
			_ = json.NewEncoder(w).Encode(map[string]int{"id": 42})
		case r.Method == http.MethodPost:
			registerCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]int{"id": 43})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewRegistryClient(srv.URL)
	id, err := client.EnsureSchema(context.Background(), "companion_telemetry-value", `{"type":"object"}`)
	require.NoError(t, err)
	require.Equal(t, 42, id)
	require.Zero(t, registerCalls.Load())
}

func TestEnsureSchemaRegistersWhenSubjectMissing(t *testing.T) {
	var registered atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error_code": 40401})
			return
		}
		require.Equal(t, "application/vnd.schemaregistry.v1+json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "JSON", body["schemaType"])
		registered.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]int{"id": 7})
	}))
	defer srv.Close()

	client := NewRegistryClient(srv.URL)
	id, err := client.EnsureSchema(context.Background(), "companion_telemetry-value", `{"type":"object"}`)
	require.NoError(t, err)
	require.Equal(t, 7, id)
	require.EqualValues(t, 1, registered.Load())
}

func TestEnsureSchemaSurfacesRegistryErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("registry exploded"))
	}))
	defer srv.Close()

	client := NewRegistryClient(srv.URL)
	_, err := client.EnsureSchema(context.Background(), "companion_telemetry-value", `{}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "registry exploded")
}
