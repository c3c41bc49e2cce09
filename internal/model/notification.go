package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// PermissionState is the platform's answer to "may this app show notifications".
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// ParsePermission maps browser vocabulary onto PermissionState.
// The Notifications API reports "default" where the Permissions API says "prompt".
func ParsePermission(s string) (PermissionState, error) {
	switch s {
	case "granted":
		return PermissionGranted, nil
	case "denied":
		return PermissionDenied, nil
	case "prompt", "default":
		return PermissionPrompt, nil
	default:
		return PermissionPrompt, fmt.Errorf("unknown permission state %q", s)
	}
}

// Action is an interactive button on a notification. Only the delivery agent supports them.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// NotificationOptions mirrors the fields of the browser NotificationOptions dictionary
// that the app uses. Zero values mean "use the default" when merged.
type NotificationOptions struct {
	Body               string         `json:"body,omitempty"`
	Icon               string         `json:"icon,omitempty"`
	Badge              string         `json:"badge,omitempty"`
	Tag                string         `json:"tag,omitempty"`
	RequireInteraction *bool          `json:"requireInteraction,omitempty"`
	Data               map[string]any `json:"data,omitempty"`
	Actions            []Action       `json:"actions,omitempty"`
}

// Merge returns o with every unset field filled from defaults.
// Data and Actions are replaced wholesale, never merged key by key.
func (o NotificationOptions) Merge(defaults NotificationOptions) NotificationOptions {
	out := defaults.Clone()
	if o.Body != "" {
		out.Body = o.Body
	}
	if o.Icon != "" {
		out.Icon = o.Icon
	}
	if o.Badge != "" {
		out.Badge = o.Badge
	}
	if o.Tag != "" {
		out.Tag = o.Tag
	}
	if o.RequireInteraction != nil {
		out.RequireInteraction = Bool(*o.RequireInteraction)
	}
	if o.Data != nil {
		out.Data = maps.Clone(o.Data)
	}
	if o.Actions != nil {
		out.Actions = slices.Clone(o.Actions)
	}
	return out
}

// Clone returns a deep-enough copy: maps, slices and the bool pointer are not shared.
func (o NotificationOptions) Clone() NotificationOptions {
	out := o
	if o.RequireInteraction != nil {
		out.RequireInteraction = Bool(*o.RequireInteraction)
	}
	out.Data = maps.Clone(o.Data)
	out.Actions = slices.Clone(o.Actions)
	return out
}

// Interactive reports the effective requireInteraction flag.
func (o NotificationOptions) Interactive() bool {
	return o.RequireInteraction != nil && *o.RequireInteraction
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// ErrQueryUnsupported is returned by surfaces that cannot report a site-level
// permission separately from the notification permission.
var ErrQueryUnsupported = errors.New("permission query not supported")
