package reminder

import (
	"time"

	"github.com/dukerupert/studyhabit/internal/model"
)

const (
	DailyTitle = "📚 Study time!"
	TestTitle  = "🧪 Test notification"

	defaultBody  = "Time to study! 📚"
	defaultIcon  = "/icon-192x192.png"
	defaultBadge = "/icon-96x96.png"
	defaultTag   = "study-reminder"

	dailyTag = "daily-study-reminder"
	testTag  = "test-notification"
)

// DefaultOptions is the payload every notification starts from.
func DefaultOptions(now time.Time) model.NotificationOptions {
	return model.NotificationOptions{
		Body:               defaultBody,
		Icon:               defaultIcon,
		Badge:              defaultBadge,
		Tag:                defaultTag,
		RequireInteraction: model.Bool(true),
		Data: map[string]any{
			"url":       "/",
			"timestamp": now.UnixMilli(),
		},
		Actions: []model.Action{
			{Action: "open", Title: "Open app", Icon: defaultIcon},
			{Action: "dismiss", Title: "Dismiss"},
		},
	}
}

// DailyOptions builds the daily reminder for cfg.
func DailyOptions(cfg model.ScheduleConfig, now time.Time) model.NotificationOptions {
	return model.NotificationOptions{
		Body:               cfg.Clock() + " study time! Read a chapter and finish today's todos.",
		Tag:                dailyTag,
		Icon:               defaultIcon,
		Badge:              defaultBadge,
		RequireInteraction: model.Bool(true),
		Data: map[string]any{
			"type":      "daily-reminder",
			"time":      cfg.Clock(),
			"url":       "/",
			"timestamp": now.UnixMilli(),
		},
	}
}

// TestOptions builds the self-dismissing confirmation notification.
func TestOptions(now time.Time) model.NotificationOptions {
	return model.NotificationOptions{
		Body:               "Notifications are working! Your study crew is cheering you on 📚",
		Tag:                testTag,
		Icon:               defaultIcon,
		Badge:              defaultBadge,
		RequireInteraction: model.Bool(false),
		Data: map[string]any{
			"type":      "test",
			"url":       "/",
			"timestamp": now.UnixMilli(),
		},
	}
}
