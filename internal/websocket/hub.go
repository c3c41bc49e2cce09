package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/studyhabit/internal/model"
)

// StatusKey is the KV key holding the last status a tab reported.
const StatusKey = "surface_status"

var (
	ErrNoClients         = errors.New("no browser tabs connected")
	ErrPermissionTimeout = errors.New("permission request timed out")
	ErrQueryUnsupported  = model.ErrQueryUnsupported
)

// Message types sent to tabs.
const (
	TypeNotification      = "notification"
	TypePermissionRequest = "permission_request"
)

// Report types received from tabs.
const (
	TypeStatus           = "status"
	TypePermissionResult = "permission_result"
)

// Message is pushed from the server to every connected tab.
type Message struct {
	Type    string                     `json:"type"`
	ID      string                     `json:"id,omitempty"`
	Title   string                     `json:"title,omitempty"`
	Options *model.NotificationOptions `json:"options,omitempty"`
}

// Report is what a tab sends back: its capabilities or the answer to a permission prompt.
type Report struct {
	Type           string `json:"type"`
	ID             string `json:"id,omitempty"`
	Supported      bool   `json:"supported"`
	Permission     string `json:"permission"`
	SitePermission string `json:"site_permission,omitempty"`
}

// Status is the most recent platform state reported by any tab.
type Status struct {
	Supported      bool                  `json:"supported"`
	Permission     model.PermissionState `json:"permission"`
	SitePermission model.PermissionState `json:"site_permission,omitempty"`
	ReportedAt     time.Time             `json:"reported_at"`
}

// StatusStore persists Status across restarts.
type StatusStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Hub maintains the set of active WebSocket clients. It doubles as the
// foreground notification surface: tabs render what it broadcasts and report
// the browser's support and permission state back.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	status  Status
	pending map[string]chan model.PermissionState

	store             StatusStore
	permissionTimeout time.Duration
	logger            *slog.Logger
}

// NewHub creates a new Hub. store may be nil, in which case status lives in memory only.
func NewHub(store StatusStore, permissionTimeout time.Duration, logger *slog.Logger) *Hub {
	return &Hub{
		clients:           make(map[*Client]struct{}),
		status:            Status{Permission: model.PermissionPrompt},
		pending:           make(map[string]chan model.PermissionState),
		store:             store,
		permissionTimeout: permissionTimeout,
		logger:            logger,
	}
}

// Load restores the last reported status so support and permission are known
// before any tab reconnects.
func (h *Hub) Load(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	raw, ok, err := h.store.Get(ctx, StatusKey)
	if err != nil {
		return fmt.Errorf("load surface status: %w", err)
	}
	if !ok {
		return nil
	}
	var st Status
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		h.logger.Warn("ignoring malformed surface status", "error", err)
		return nil
	}
	if st.Permission == "" {
		st.Permission = model.PermissionPrompt
	}
	h.mu.Lock()
	h.status = st
	h.mu.Unlock()
	return nil
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients and returns how many
// accepted it.
func (h *Hub) Broadcast(msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.clients {
		select {
		case c.send <- data:
			n++
		default:
			// Client buffer full, drop message to avoid blocking
		}
	}
	return n
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Status returns the last reported platform state.
func (h *Hub) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// HandleReport applies a message received from a tab.
func (h *Hub) HandleReport(ctx context.Context, r Report) {
	switch r.Type {
	case TypeStatus:
		perm, err := model.ParsePermission(r.Permission)
		if err != nil {
			h.logger.Warn("bad status report", "error", err)
			return
		}
		st := Status{Supported: r.Supported, Permission: perm, ReportedAt: time.Now()}
		if r.SitePermission != "" {
			if sp, err := model.ParsePermission(r.SitePermission); err == nil {
				st.SitePermission = sp
			}
		}
		h.setStatus(ctx, st)

	case TypePermissionResult:
		perm, err := model.ParsePermission(r.Permission)
		if err != nil {
			h.logger.Warn("bad permission result", "id", r.ID, "error", err)
			return
		}
		h.mu.Lock()
		st := h.status
		st.Permission = perm
		st.Supported = true
		st.ReportedAt = time.Now()
		ch, ok := h.pending[r.ID]
		if ok {
			delete(h.pending, r.ID)
		}
		h.mu.Unlock()
		h.setStatus(ctx, st)
		if ok {
			ch <- perm
		}

	default:
		h.logger.Debug("ignoring unknown report", "type", r.Type)
	}
}

func (h *Hub) setStatus(ctx context.Context, st Status) {
	h.mu.Lock()
	h.status = st
	h.mu.Unlock()

	if h.store == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		h.logger.Error("marshal surface status", "error", err)
		return
	}
	if err := h.store.Set(ctx, StatusKey, string(data)); err != nil {
		h.logger.Error("persist surface status", "error", err)
	}
}

// Supported reports whether the connected browser can show notifications.
func (h *Hub) Supported() bool {
	return h.Status().Supported
}

// Permission returns the notification-level permission.
func (h *Hub) Permission(ctx context.Context) (model.PermissionState, error) {
	return h.Status().Permission, nil
}

// QueryPermission returns the site-level permission from the Permissions API.
func (h *Hub) QueryPermission(ctx context.Context) (model.PermissionState, error) {
	st := h.Status()
	if st.SitePermission == "" {
		return "", ErrQueryUnsupported
	}
	return st.SitePermission, nil
}

// RequestPermission asks every connected tab to prompt the user and waits for
// the first answer.
func (h *Hub) RequestPermission(ctx context.Context) (model.PermissionState, error) {
	id := uuid.NewString()
	ch := make(chan model.PermissionState, 1)

	h.mu.Lock()
	h.pending[id] = ch
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
	}()

	if h.Broadcast(Message{Type: TypePermissionRequest, ID: id}) == 0 {
		return "", ErrNoClients
	}

	timer := time.NewTimer(h.permissionTimeout)
	defer timer.Stop()

	select {
	case perm := <-ch:
		return perm, nil
	case <-timer.C:
		return "", ErrPermissionTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Show renders a notification in every connected tab.
func (h *Hub) Show(ctx context.Context, title string, opts model.NotificationOptions) error {
	o := opts.Clone()
	if h.Broadcast(Message{Type: TypeNotification, Title: title, Options: &o}) == 0 {
		return ErrNoClients
	}
	return nil
}
