package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/companion/internal/connectivity"
	"example.com/companion/internal/domain"
	"example.com/companion/internal/family"
	"example.com/companion/internal/notify"
	"example.com/companion/internal/scheduler"
	"example.com/companion/internal/transport"
	"example.com/companion/internal/voice"
	"example.com/companion/internal/widget"
	"example.com/companion/internal/workout"
)

func TestRegisterWidgetEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPost, "/v1/widgets", `{
		"id": "wgt-1",
		"title": "Chores",
		"content": "3 open",
		"category": "tasks",
		"template": "short_text",
		"priority": 5,
		"refresh_interval_seconds": 60
	}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.JSONEq(t, `{"widget_id":"wgt-1"}`, resp.Body.String())

	resp = env.do(t, http.MethodGet, "/v1/widgets", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var list ListWidgetsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, "wgt-1", list.Items[0].ID)
	require.Equal(t, "tasks", list.Items[0].Category)
}

func TestRegisterWidgetValidation(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPost, "/v1/widgets", `{"id":"wgt-1","template":"short_text"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "validation_failed")

	resp = env.do(t, http.MethodPost, "/v1/widgets", `{not json`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Contains(t, resp.Body.String(), "invalid_request")
}

func TestUpdateAndDeactivateWidget(t *testing.T) {
	env := newTestEnv(t, true)
	env.registerWidget(t, "wgt-1")

	resp := env.do(t, http.MethodPatch, "/v1/widgets/wgt-1", `{"title":"Groceries"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodDelete, "/v1/widgets/wgt-1", "")
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = env.do(t, http.MethodPatch, "/v1/widgets/ghost", `{"title":"x"}`)
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Contains(t, resp.Body.String(), "not_found")
}

func TestDispatchNotificationDeliveredVersusQueued(t *testing.T) {
	env := newTestEnv(t, true)

	body := `{"title":"Dinner","message":"Food is ready","category":"task_reminder","urgency":"normal"}`
	resp := env.do(t, http.MethodPost, "/v1/notifications", body)
	require.Equal(t, http.StatusOK, resp.Code)

	var result DispatchNotificationResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.True(t, result.Delivered)
	require.False(t, result.Queued)
	require.Equal(t, []string{"watch-1"}, result.Accepted)

	env.transport.setOffline(true)
	env.monitor.CheckConnectivity(context.Background())

	resp = env.do(t, http.MethodPost, "/v1/notifications", body)
	require.Equal(t, http.StatusAccepted, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.False(t, result.Delivered)
	require.True(t, result.Queued)
}

func TestRecentNotificationsPagination(t *testing.T) {
	env := newTestEnv(t, true)

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{"title":"n-%d","message":"m","category":"task_reminder","urgency":"low"}`, i)
		resp := env.do(t, http.MethodPost, "/v1/notifications", body)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := env.do(t, http.MethodGet, "/v1/notifications/recent?limit=2", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var page RecentNotificationsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	resp = env.do(t, http.MethodGet, "/v1/notifications/recent?limit=2&cursor="+page.NextCursor, "")
	require.Equal(t, http.StatusOK, resp.Code)
	page = RecentNotificationsResponse{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	require.Empty(t, page.NextCursor)

	resp = env.do(t, http.MethodGet, "/v1/notifications/recent?cursor=not-a-cursor!", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestVoiceEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPost, "/v1/voice", `{"text":"remind me to water the plants"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var cmd domain.VoiceCommand
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &cmd))
	require.Equal(t, domain.IntentCreateTask, cmd.Intent)
	require.Contains(t, cmd.Response, "water the plants")
	require.Len(t, env.family.Tasks(), 1)
}

func TestWorkoutLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPost, "/v1/workouts", `{"member_id":"emma","goal_kind":"steps","target":5000}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	var wk domain.Workout
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &wk))
	require.NotEmpty(t, wk.ID)
	require.Equal(t, domain.WorkoutActive, wk.Status)

	resp = env.do(t, http.MethodPost, "/v1/workouts/"+wk.ID+"/pause", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &wk))
	require.Equal(t, domain.WorkoutPaused, wk.Status)

	resp = env.do(t, http.MethodPost, "/v1/workouts/"+wk.ID+"/resume", "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodPost, "/v1/workouts/"+wk.ID+"/complete", "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodPost, "/v1/workouts/"+wk.ID+"/complete", "")
	require.Equal(t, http.StatusConflict, resp.Code)
	require.Contains(t, resp.Body.String(), "conflict")

	resp = env.do(t, http.MethodGet, "/v1/workouts", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var list ListWorkoutsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Empty(t, list.Items)
}

func TestWorkoutErrors(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPost, "/v1/workouts", `{"member_id":"","goal_kind":"steps","target":100}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.do(t, http.MethodGet, "/v1/workouts/ghost", "")
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = env.do(t, http.MethodPost, "/v1/workouts/ghost/explode", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestConnectivityEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodGet, "/v1/connectivity", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var view ConnectivityView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.True(t, view.Connected)
	require.Equal(t, []string{"watch-1"}, view.DeviceIDs)

	env.transport.setOffline(true)
	resp = env.do(t, http.MethodPost, "/v1/connectivity", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.False(t, view.Connected)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "ok", resp.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.do(t, http.MethodPut, "/v1/widgets", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	resp = env.do(t, http.MethodGet, "/v1/notifications", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	resp = env.do(t, http.MethodDelete, "/v1/voice", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

type testEnv struct {
	mux       *http.ServeMux
	transport *stubTransport
	monitor   *connectivity.Monitor
	family    *family.Service
}

func newTestEnv(t *testing.T, connected bool) *testEnv {
	t.Helper()

	logger := log.New(testWriter{t}, "", 0)
	tr := &stubTransport{devices: []string{"watch-1"}}
	tr.setOffline(!connected)

	monitor := connectivity.NewMonitor(tr, connectivity.WithLogger(logger))
	monitor.CheckConnectivity(context.Background())

	sched := scheduler.NewManual()
	registry := widget.NewRegistry(tr, monitor, sched, widget.WithLogger(logger))
	dispatcher := notify.NewDispatcher(tr, monitor, notify.NewMemoryStore(100), 24*time.Hour, 3, 10, notify.WithLogger(logger))
	manager := workout.NewManager(sched, 30*time.Second, staticProgress{}, dispatcher, "family-test", workout.WithLogger(logger))
	svc := family.NewService(dispatcher, manager, monitor, "family-test")
	interpreter := voice.NewInterpreter(svc, 0.95, 20, voice.WithLogger(logger))

	handler := NewHandler(registry, dispatcher, interpreter, manager, monitor, "family-test")
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	t.Cleanup(manager.Close)
	return &testEnv{mux: mux, transport: tr, monitor: monitor, family: svc}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerWidget(t *testing.T, id string) {
	t.Helper()

	body := fmt.Sprintf(`{"id":%q,"title":"Chores","content":"c","category":"tasks","template":"short_text","refresh_interval_seconds":60}`, id)
	resp := e.do(t, http.MethodPost, "/v1/widgets", body)
	require.Equal(t, http.StatusCreated, resp.Code)
}

type staticProgress struct{}

func (staticProgress) TotalSince(domain.SampleKind, time.Time, time.Time) float64 { return 0 }

type stubTransport struct {
	mu      sync.Mutex
	devices []string
	offline bool
}

func (s *stubTransport) setOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

func (s *stubTransport) ListPairedDevices(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, nil
	}
	return s.devices, nil
}

func (s *stubTransport) Send(_ context.Context, device string, _ transport.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return errors.New("device unreachable")
	}
	return nil
}

func (s *stubTransport) PullSamples(context.Context, string, domain.SampleKind) ([]domain.TelemetrySample, error) {
	return nil, nil
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
