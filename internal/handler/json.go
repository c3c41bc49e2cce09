package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/studyhabit/internal/model"
	"github.com/dukerupert/studyhabit/internal/reminder"
	ws "github.com/dukerupert/studyhabit/internal/websocket"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

// errorStatus maps scheduler and surface errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidSchedule):
		return http.StatusBadRequest
	case errors.Is(err, reminder.ErrPermissionRequired):
		return http.StatusForbidden
	case errors.Is(err, ws.ErrNoClients):
		return http.StatusServiceUnavailable
	case errors.Is(err, ws.ErrPermissionTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, reminder.ErrDelivery), errors.Is(err, reminder.ErrTestDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
