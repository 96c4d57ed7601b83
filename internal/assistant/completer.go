// Package assistant talks to the text completion service.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("assistant not configured")

// DefaultModel is used when ANTHROPIC_MODEL is unset.
const DefaultModel = "claude-haiku-4-5"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Completer returns the assistant's reply to a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Anthropic is a Completer backed by the Messages API.
type Anthropic struct {
	client     anthropic.Client
	model      anthropic.Model
	maxTokens  int64
	newBackoff func() backoff.BackOff
}

func NewAnthropic(apiKey, model string) (*Anthropic, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY", ErrNotConfigured)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Anthropic{
		client:     anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)),
		model:      anthropic.Model(model),
		maxTokens:  1024,
		newBackoff: defaultBackoff,
	}, nil
}

func defaultBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = 30 * time.Second
	return backoff.WithMaxRetries(bo, 3)
}

func (a *Anthropic) Complete(ctx context.Context, messages []Message) (string, error) {
	params, err := buildParams(a.model, a.maxTokens, messages)
	if err != nil {
		return "", err
	}

	var reply string
	err = backoff.Retry(func() error {
		message, err := a.client.Messages.New(ctx, params)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		reply, err = textOf(message)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(a.newBackoff(), ctx))
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return reply, nil
}

func buildParams(model anthropic.Model, maxTokens int64, messages []Message) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{Model: model, MaxTokens: maxTokens}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			return params, fmt.Errorf("unknown message role %q", m.Role)
		}
	}
	if len(params.Messages) == 0 {
		return params, errors.New("no messages to send")
	}
	return params, nil
}

func textOf(message *anthropic.Message) (string, error) {
	var parts []string
	for _, block := range message.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("unexpected response format: no text blocks")
	}
	return strings.Join(parts, ""), nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// Disabled answers every request with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Complete(context.Context, []Message) (string, error) {
	return "", ErrNotConfigured
}
