package reminder

import (
	"context"
	"errors"

	"github.com/dukerupert/studyhabit/internal/model"
)

const (
	issueUnsupported   = "This browser does not support notifications."
	issueDenied        = "Notification permission has been denied."
	issuePrompt        = "Notification permission has not been requested yet."
	issueAgentNotReady = "The service worker is not ready."
	issueSiteDenied    = "Notifications are blocked in the site settings."

	recUseSupportedBrowser = "Use a browser that supports notifications, such as a recent Chrome, Firefox, Edge or Safari."
	recLockIcon            = "Click the lock icon in the address bar and allow notifications."
	recChromeSettings      = "Chrome: check chrome://settings/content/notifications."
	recAllowPrompt         = "Allow notifications when the browser asks."
	recReload              = "Reload the page so the service worker registers again."
	recOSSettings          = "Check that the browser may show notifications in the operating system settings."
	recDoNotDisturb        = "Check that Do Not Disturb or focus mode is turned off."
)

// Diagnose checks capability, permission, agent readiness and site-level
// permission, and suggests remediations. Each check is best-effort.
func (s *Scheduler) Diagnose(ctx context.Context) model.DiagnosisReport {
	if !s.surface.Supported() {
		return model.DiagnosisReport{
			HasIssues:       true,
			Issues:          []string{issueUnsupported},
			Recommendations: []string{recUseSupportedBrowser},
		}
	}

	var issues, recs []string

	perm, err := s.surface.Permission(ctx)
	if err != nil {
		s.logger.Warn("diagnose: read permission", "error", err)
	}
	switch {
	case err != nil:
	case perm == model.PermissionDenied:
		issues = append(issues, issueDenied)
		recs = append(recs, recLockIcon, recChromeSettings)
	case perm == model.PermissionPrompt:
		issues = append(issues, issuePrompt)
		recs = append(recs, recAllowPrompt)
	}

	if !s.agentAvailable(ctx) {
		issues = append(issues, issueAgentNotReady)
		recs = append(recs, recReload)
	}

	if q, ok := s.surface.(PermissionQuerier); ok {
		site, err := q.QueryPermission(ctx)
		switch {
		case err == nil && site == model.PermissionDenied:
			issues = append(issues, issueSiteDenied)
			recs = append(recs, recLockIcon)
		case errors.Is(err, model.ErrQueryUnsupported):
			s.logger.Debug("diagnose: site permission query unavailable")
		case err != nil:
			s.logger.Warn("diagnose: query site permission", "error", err)
		}
	}

	recs = append(recs, recOSSettings, recDoNotDisturb)

	return model.DiagnosisReport{
		HasIssues:       len(issues) > 0,
		Issues:          nonNil(issues),
		Recommendations: recs,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
