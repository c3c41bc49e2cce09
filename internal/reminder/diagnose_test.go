package reminder

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/dukerupert/studyhabit/internal/model"
)

func TestDiagnoseUnsupported(t *testing.T) {
	surface := newSurface(model.PermissionPrompt)
	surface.supported = false
	s := newTestScheduler(surface, &fakeAgent{readyErr: errNotRegistered}, newMemKV(), newFakeTimer())

	report := s.Diagnose(context.Background())

	if !report.HasIssues {
		t.Error("expected issues")
	}
	if len(report.Issues) != 1 || report.Issues[0] != issueUnsupported {
		t.Errorf("issues = %v, want exactly the missing capability", report.Issues)
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected at least one recommendation")
	}
}

func TestDiagnoseHealthy(t *testing.T) {
	s := newTestScheduler(newSurface(model.PermissionGranted), &fakeAgent{}, newMemKV(), newFakeTimer())

	report := s.Diagnose(context.Background())

	if report.HasIssues || len(report.Issues) != 0 {
		t.Errorf("issues = %v, want none", report.Issues)
	}
	if !slices.Contains(report.Recommendations, recOSSettings) || !slices.Contains(report.Recommendations, recDoNotDisturb) {
		t.Errorf("recommendations = %v, want OS and Do Not Disturb hints", report.Recommendations)
	}
}

func TestDiagnoseIssues(t *testing.T) {
	tests := []struct {
		name       string
		permission model.PermissionState
		agent      Agent
		site       model.PermissionState
		siteErr    error
		wantIssues []string
		wantRec    string
	}{
		{
			name:       "denied",
			permission: model.PermissionDenied,
			agent:      &fakeAgent{},
			siteErr:    model.ErrQueryUnsupported,
			wantIssues: []string{issueDenied},
			wantRec:    recLockIcon,
		},
		{
			name:       "not asked",
			permission: model.PermissionPrompt,
			agent:      &fakeAgent{},
			siteErr:    model.ErrQueryUnsupported,
			wantIssues: []string{issuePrompt},
			wantRec:    recAllowPrompt,
		},
		{
			name:       "agent not ready",
			permission: model.PermissionGranted,
			agent:      &fakeAgent{readyErr: errNotRegistered},
			siteErr:    model.ErrQueryUnsupported,
			wantIssues: []string{issueAgentNotReady},
			wantRec:    recReload,
		},
		{
			name:       "no agent",
			permission: model.PermissionGranted,
			agent:      nil,
			siteErr:    model.ErrQueryUnsupported,
			wantIssues: []string{issueAgentNotReady},
			wantRec:    recReload,
		},
		{
			name:       "site blocked",
			permission: model.PermissionGranted,
			agent:      &fakeAgent{},
			site:       model.PermissionDenied,
			wantIssues: []string{issueSiteDenied},
			wantRec:    recLockIcon,
		},
		{
			name:       "site query error is skipped",
			permission: model.PermissionGranted,
			agent:      &fakeAgent{},
			siteErr:    errors.New("boom"),
			wantIssues: []string{},
			wantRec:    recOSSettings,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := newSurface(tt.permission)
			surface.site = tt.site
			surface.siteErr = tt.siteErr
			s := newTestScheduler(surface, tt.agent, newMemKV(), newFakeTimer())

			report := s.Diagnose(context.Background())

			if !slices.Equal(report.Issues, tt.wantIssues) {
				t.Errorf("issues = %v, want %v", report.Issues, tt.wantIssues)
			}
			if report.HasIssues != (len(tt.wantIssues) > 0) {
				t.Errorf("hasIssues = %v", report.HasIssues)
			}
			if !slices.Contains(report.Recommendations, tt.wantRec) {
				t.Errorf("recommendations = %v, want %q", report.Recommendations, tt.wantRec)
			}
		})
	}
}

func TestDiagnoseWithoutPermissionQuery(t *testing.T) {
	s := newTestScheduler(plainSurface{newSurface(model.PermissionGranted)}, &fakeAgent{}, newMemKV(), newFakeTimer())

	report := s.Diagnose(context.Background())
	if report.HasIssues {
		t.Errorf("issues = %v, want none", report.Issues)
	}
}
