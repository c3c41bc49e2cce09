package model

import "time"

// DiagnosisReport is computed on demand and never persisted.
type DiagnosisReport struct {
	HasIssues       bool     `json:"hasIssues"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// NotificationInfo is a point-in-time summary of the notification subsystem.
type NotificationInfo struct {
	Supported   bool            `json:"supported"`
	Permission  PermissionState `json:"permission"`
	HasSchedule bool            `json:"hasSchedule"`
	AgentReady  bool            `json:"serviceWorkerReady"`
	Schedule    ScheduleConfig  `json:"schedule"`
	NextFire    *time.Time      `json:"nextFire,omitempty"`
}
