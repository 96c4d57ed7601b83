package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"daily-review/internal/model"
)

// TodaySource yields the aggregated day for a user.
type TodaySource interface {
	Today(ctx context.Context, userID string) (Today, error)
}

// ReminderService builds human-readable summaries for scheduled notifications.
type ReminderService struct {
	items TodaySource
}

func NewReminderService(items TodaySource) *ReminderService {
	return &ReminderService{items: items}
}

// DailySummary renders today's items as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	today, err := s.items.Today(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Today</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("🔥 <b>Non-negotiables</b>\n")
	if len(today.NonNegotiables) == 0 {
		builder.WriteString("— nothing non-negotiable today\n")
	} else {
		for _, item := range today.NonNegotiables {
			builder.WriteString(FormatItem(item))
		}
	}

	builder.WriteString("\n📌 <b>Everything else</b>\n")
	if len(today.Others) == 0 {
		builder.WriteString("— nothing else due\n")
	} else {
		for _, item := range today.Others {
			builder.WriteString(FormatItem(item))
		}
	}

	done, total := progress(today.Items)
	builder.WriteString(fmt.Sprintf("\n✅ %d/%d done", done, total))

	return strings.TrimSpace(builder.String()), nil
}

// ReviewReminder is the evening nudge to run the daily review.
func (s *ReminderService) ReviewReminder(ctx context.Context, user model.User) (string, error) {
	today, err := s.items.Today(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("🌙 <b>Time for your daily review</b>\n")
	pending := Visible(today.NonNegotiables, true)
	if len(pending) == 0 {
		builder.WriteString("All non-negotiables are done. Plan tomorrow with /review")
		return builder.String(), nil
	}
	builder.WriteString(fmt.Sprintf("%d non-negotiable(s) still open:\n", len(pending)))
	for _, item := range pending {
		builder.WriteString(FormatItem(item))
	}
	builder.WriteString("\nFinish them or start /review")
	return builder.String(), nil
}

// FormatItem renders one item as a single HTML line.
func FormatItem(item DueItem) string {
	var sb strings.Builder

	icon := "⬜️"
	if item.IsCompleted {
		icon = "✅"
	}
	kind := ""
	if item.Kind == KindHabit {
		kind = " ♻️"
	}

	sb.WriteString(fmt.Sprintf("%s %s%s", icon, html.EscapeString(strings.TrimSpace(item.Text)), kind))
	if item.Priority == model.PriorityImportant && !item.IsNonNegotiable {
		sb.WriteString(" <i>(important)</i>")
	}
	if item.TimeEstimate != nil && *item.TimeEstimate > 0 {
		sb.WriteString(fmt.Sprintf(" · ⏱ %d min", *item.TimeEstimate))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func progress(items []DueItem) (done, total int) {
	for _, item := range items {
		if item.IsCompleted {
			done++
		}
	}
	return done, len(items)
}
