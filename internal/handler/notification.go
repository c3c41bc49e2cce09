package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/studyhabit/internal/model"
)

// Notifier is the scheduler surface the HTTP API drives.
type Notifier interface {
	Info(ctx context.Context) model.NotificationInfo
	RequestPermission(ctx context.Context) (model.PermissionState, error)
	ShowNotification(ctx context.Context, title string, opts model.NotificationOptions) error
	TestNotification(ctx context.Context) error
	Diagnose(ctx context.Context) model.DiagnosisReport
	SavedScheduleInfo(ctx context.Context) model.ScheduleConfig
	ScheduleDaily(ctx context.Context, hour, minute int) error
	ClearAllSchedules(ctx context.Context) error
}

type NotificationHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewNotificationHandler(n Notifier, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifier: n, logger: logger}
}

// Info handles GET /api/notifications/info
func (h *NotificationHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notifier.Info(r.Context()))
}

// RequestPermission handles POST /api/notifications/permission
func (h *NotificationHandler) RequestPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := h.notifier.RequestPermission(r.Context())
	if err != nil {
		h.logger.Warn("request permission", "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.PermissionState{"permission": perm})
}

type showRequest struct {
	Title   string                    `json:"title"`
	Options model.NotificationOptions `json:"options"`
}

// Show handles POST /api/notifications
func (h *NotificationHandler) Show(w http.ResponseWriter, r *http.Request) {
	var req showRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := h.notifier.ShowNotification(r.Context(), req.Title, req.Options); err != nil {
		h.logger.Error("show notification", "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test handles POST /api/notifications/test
func (h *NotificationHandler) Test(w http.ResponseWriter, r *http.Request) {
	if err := h.notifier.TestNotification(r.Context()); err != nil {
		h.logger.Warn("test notification", "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// Diagnose handles GET /api/notifications/diagnosis
func (h *NotificationHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notifier.Diagnose(r.Context()))
}

type scheduleResponse struct {
	Hour     int        `json:"hour"`
	Minute   int        `json:"minute"`
	Enabled  bool       `json:"enabled"`
	NextFire *time.Time `json:"nextFire,omitempty"`
}

func (h *NotificationHandler) scheduleState(ctx context.Context) scheduleResponse {
	info := h.notifier.Info(ctx)
	return scheduleResponse{
		Hour:     info.Schedule.Hour,
		Minute:   info.Schedule.Minute,
		Enabled:  info.Schedule.Enabled,
		NextFire: info.NextFire,
	}
}

// GetSchedule handles GET /api/notifications/schedule
func (h *NotificationHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduleState(r.Context()))
}

type scheduleRequest struct {
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
}

// PutSchedule handles PUT /api/notifications/schedule
func (h *NotificationHandler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Hour == nil || req.Minute == nil {
		writeError(w, http.StatusBadRequest, "hour and minute are required")
		return
	}

	if err := h.notifier.ScheduleDaily(r.Context(), *req.Hour, *req.Minute); err != nil {
		status := errorStatus(err)
		if status >= 500 {
			h.logger.Error("schedule daily reminder", "error", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.scheduleState(r.Context()))
}

// DeleteSchedule handles DELETE /api/notifications/schedule
func (h *NotificationHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.notifier.ClearAllSchedules(r.Context()); err != nil {
		h.logger.Error("clear schedules", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
