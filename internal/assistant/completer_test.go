package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParamsSplitsSystem(t *testing.T) {
	params, err := buildParams(anthropic.Model(DefaultModel), 256, []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "plan my day"},
	})
	require.NoError(t, err)
	require.Len(t, params.System, 1)
	assert.Equal(t, "be brief", params.System[0].Text)
	assert.Len(t, params.Messages, 3)
	assert.Equal(t, int64(256), params.MaxTokens)
}

func TestBuildParamsRejectsEmptyConversation(t *testing.T) {
	_, err := buildParams(anthropic.Model(DefaultModel), 256, []Message{{Role: RoleSystem, Content: "x"}})
	assert.Error(t, err)

	_, err = buildParams(anthropic.Model(DefaultModel), 256, []Message{{Role: "tool", Content: "x"}})
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&anthropic.Error{StatusCode: 429}))
	assert.True(t, isRetryable(&anthropic.Error{StatusCode: 503}))
	assert.False(t, isRetryable(&anthropic.Error{StatusCode: 400}))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(errors.New("boom")))
}

func TestNewAnthropicNeedsKey(t *testing.T) {
	_, err := NewAnthropic(" ", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	a, err := NewAnthropic("sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, anthropic.Model(DefaultModel), a.model)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
