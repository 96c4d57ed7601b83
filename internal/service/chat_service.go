package service

import (
	"context"
	"fmt"
	"strings"

	"daily-review/internal/assistant"
	"daily-review/internal/model"
)

const chatSystemPrompt = "You are an AI assistant helping the user complete their tasks for today. Be encouraging and helpful."

// ChatService answers free-form questions with today's items as context.
type ChatService struct {
	items     TodaySource
	completer assistant.Completer
}

func NewChatService(items TodaySource, completer assistant.Completer) *ChatService {
	return &ChatService{items: items, completer: completer}
}

// Ask sends history plus the new message; history excludes system messages.
func (s *ChatService) Ask(ctx context.Context, userID string, history []assistant.Message, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("chat: empty message: %w", model.ErrValidationFailed)
	}
	today, err := s.items.Today(ctx, userID)
	if err != nil {
		return "", err
	}

	messages := []assistant.Message{
		{Role: assistant.RoleSystem, Content: chatSystemPrompt},
		{Role: assistant.RoleSystem, Content: TodayContext(today)},
	}
	messages = append(messages, history...)
	messages = append(messages, assistant.Message{Role: assistant.RoleUser, Content: text})

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return reply, nil
}

// TodayContext summarises today's items for the assistant.
func TodayContext(today Today) string {
	var important, flexible []DueItem
	for _, item := range today.Items {
		if item.Priority == model.PriorityImportant {
			important = append(important, item)
		} else {
			flexible = append(flexible, item)
		}
	}

	var sb strings.Builder
	sb.WriteString("Today's Tasks Overview:\n")
	writeContextGroup(&sb, "Non-negotiables", today.NonNegotiables)
	writeContextGroup(&sb, "Important", important)
	writeContextGroup(&sb, "Flexible", flexible)
	return strings.TrimSpace(sb.String())
}

func writeContextGroup(sb *strings.Builder, title string, items []DueItem) {
	sb.WriteString(fmt.Sprintf("\n%s (%d):\n", title, len(items)))
	for _, item := range items {
		status := "Pending"
		if item.IsCompleted {
			status = "Completed"
		}
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", item.Text, status))
	}
}
