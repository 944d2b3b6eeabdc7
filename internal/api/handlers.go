// Package api exposes HTTP handlers for the companion sync engine.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/companion/internal/connectivity"
	"example.com/companion/internal/domain"
	"example.com/companion/internal/notify"
	"example.com/companion/internal/voice"
	"example.com/companion/internal/widget"
	"example.com/companion/internal/workout"
)

// Handler coordinates HTTP requests with the engine components.
type Handler struct {
	widgets     *widget.Registry
	dispatcher  *notify.Dispatcher
	interpreter *voice.Interpreter
	workouts    *workout.Manager
	monitor     *connectivity.Monitor
	familyID    string
}

// NewHandler builds a Handler.
func NewHandler(widgets *widget.Registry, dispatcher *notify.Dispatcher, interpreter *voice.Interpreter, workouts *workout.Manager, monitor *connectivity.Monitor, familyID string) *Handler {
	return &Handler{
		widgets:     widgets,
		dispatcher:  dispatcher,
		interpreter: interpreter,
		workouts:    workouts,
		monitor:     monitor,
		familyID:    familyID,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/widgets", h.widgetsRoot)
	mux.HandleFunc("/v1/widgets/", h.widgetByID)
	mux.HandleFunc("/v1/notifications", h.notifications)
	mux.HandleFunc("/v1/notifications/recent", h.recentNotifications)
	mux.HandleFunc("/v1/voice", h.voiceCommand)
	mux.HandleFunc("/v1/workouts", h.workoutsRoot)
	mux.HandleFunc("/v1/workouts/", h.workoutByID)
	mux.HandleFunc("/v1/connectivity", h.connectivityState)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) widgetsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.registerWidget(w, r)
	case http.MethodGet:
		h.listWidgets(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) widgetByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/widgets/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing widget id")
		return
	}

	switch r.Method {
	case http.MethodPatch:
		h.updateWidget(w, r, id)
	case http.MethodDelete:
		h.deactivateWidget(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) registerWidget(w http.ResponseWriter, r *http.Request) {
	var req RegisterWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := h.widgets.Register(r.Context(), req.toWidget()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"widget_id": req.ID})
}

func (h *Handler) updateWidget(w http.ResponseWriter, r *http.Request, id string) {
	var partial map[string]any
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := h.widgets.Update(r.Context(), id, partial); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"widget_id": id})
}

func (h *Handler) deactivateWidget(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.widgets.Deactivate(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listWidgets(w http.ResponseWriter, r *http.Request) {
	active := h.widgets.ListActive()
	items := make([]WidgetView, 0, len(active))
	for _, wd := range active {
		items = append(items, toWidgetView(wd))
	}
	writeJSON(w, http.StatusOK, ListWidgetsResponse{Items: items})
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req DispatchNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req.toNotification(h.familyID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, DispatchNotificationResponse{
		Delivered: result.Delivered,
		Queued:    result.Queued,
		Accepted:  result.Accepted,
	})
}

func (h *Handler) recentNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 50 {
				parsed = 50
			}
			limit = parsed
		}
	}

	cursor, err := notify.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.dispatcher.RecentAudit(r.Context(), cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, RecentNotificationsResponse{
		Items:      records,
		NextCursor: notify.EncodeCursor(next),
	})
}

func (h *Handler) voiceCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req VoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	cmd := h.interpreter.Interpret(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, cmd)
}

func (h *Handler) workoutsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.startWorkout(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, ListWorkoutsResponse{Items: h.workouts.ListActive()})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) workoutByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/workouts/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing workout id")
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		wk, err := h.workouts.Get(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wk)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var (
		wk  domain.Workout
		err error
	)
	switch action {
	case "pause":
		wk, err = h.workouts.Pause(id)
	case "resume":
		wk, err = h.workouts.Resume(id)
	case "complete":
		wk, err = h.workouts.Complete(r.Context(), id)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown workout action")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wk)
}

func (h *Handler) connectivityState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toConnectivityView(h.monitor.Last()))
	case http.MethodPost:
		// Forces a probe outside the polling cadence.
		writeJSON(w, http.StatusOK, toConnectivityView(h.monitor.CheckConnectivity(r.Context())))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// RegisterWidgetRequest is the payload for POST /v1/widgets.
type RegisterWidgetRequest struct {
	ID                     string         `json:"id"`
	Title                  string         `json:"title"`
	Content                string         `json:"content"`
	Category               string         `json:"category"`
	Template               string         `json:"template"`
	Data                   map[string]any `json:"data,omitempty"`
	Priority               int            `json:"priority"`
	RefreshIntervalSeconds int            `json:"refresh_interval_seconds"`
}

func (r RegisterWidgetRequest) toWidget() domain.Widget {
	return domain.Widget{
		ID:              r.ID,
		Title:           r.Title,
		Content:         r.Content,
		Category:        domain.WidgetCategory(r.Category),
		Template:        domain.WidgetTemplate(r.Template),
		Data:            r.Data,
		Priority:        r.Priority,
		RefreshInterval: time.Duration(r.RefreshIntervalSeconds) * time.Second,
	}
}

// WidgetView exposes a widget over the API.
type WidgetView struct {
	ID                     string         `json:"id"`
	Title                  string         `json:"title"`
	Content                string         `json:"content"`
	Category               string         `json:"category"`
	Template               string         `json:"template"`
	Data                   map[string]any `json:"data,omitempty"`
	Priority               int            `json:"priority"`
	RefreshIntervalSeconds int            `json:"refresh_interval_seconds"`
}

// ListWidgetsResponse packages list results.
type ListWidgetsResponse struct {
	Items []WidgetView `json:"items"`
}

// DispatchNotificationRequest is the payload for POST /v1/notifications.
type DispatchNotificationRequest struct {
	TargetMemberID string          `json:"target_member_id,omitempty"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	Category       string          `json:"category"`
	Urgency        string          `json:"urgency"`
	Actions        []domain.Action `json:"actions,omitempty"`
}

func (r DispatchNotificationRequest) toNotification(familyID string) domain.Notification {
	return domain.Notification{
		FamilyID:       familyID,
		TargetMemberID: r.TargetMemberID,
		Title:          r.Title,
		Message:        r.Message,
		Category:       domain.NotificationCategory(r.Category),
		Urgency:        domain.Urgency(r.Urgency),
		Actions:        r.Actions,
	}
}

// DispatchNotificationResponse reports the delivery outcome.
type DispatchNotificationResponse struct {
	Delivered bool     `json:"delivered"`
	Queued    bool     `json:"queued"`
	Accepted  []string `json:"accepted_device_ids,omitempty"`
}

// RecentNotificationsResponse packages the audit page.
type RecentNotificationsResponse struct {
	Items      []notify.AuditRecord `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// VoiceRequest is the payload for POST /v1/voice.
type VoiceRequest struct {
	Text string `json:"text"`
}

// StartWorkoutRequest is the payload for POST /v1/workouts.
type StartWorkoutRequest struct {
	MemberID string  `json:"member_id"`
	GoalKind string  `json:"goal_kind"`
	Target   float64 `json:"target"`
}

// ListWorkoutsResponse packages active workouts.
type ListWorkoutsResponse struct {
	Items []domain.Workout `json:"items"`
}

// ConnectivityView reports the last observed link state.
type ConnectivityView struct {
	Connected bool      `json:"connected"`
	DeviceIDs []string  `json:"device_ids,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

func (h *Handler) startWorkout(w http.ResponseWriter, r *http.Request) {
	var req StartWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	wk, err := h.workouts.Start(req.MemberID, domain.GoalKind(req.GoalKind), req.Target)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wk)
}

func toWidgetView(w domain.Widget) WidgetView {
	return WidgetView{
		ID:                     w.ID,
		Title:                  w.Title,
		Content:                w.Content,
		Category:               string(w.Category),
		Template:               string(w.Template),
		Data:                   w.Data,
		Priority:               w.Priority,
		RefreshIntervalSeconds: int(w.RefreshInterval / time.Second),
	}
}

func toConnectivityView(s connectivity.State) ConnectivityView {
	return ConnectivityView{
		Connected: s.Connected,
		DeviceIDs: s.DeviceIDs,
		CheckedAt: s.CheckedAt,
	}
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, domain.ErrWidgetNotFound), errors.Is(err, domain.ErrWorkoutNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrWorkoutCompleted):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
