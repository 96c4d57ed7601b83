package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-review/internal/model"
)

func TestPlannerCapsAtThree(t *testing.T) {
	p := NewPlanner()
	for _, text := range []string{"one", "two", "three"} {
		_, err := p.Add(text, nil)
		require.NoError(t, err)
	}

	_, err := p.Add("four", nil)
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.ErrorIs(t, err, ErrPlanFull)
	assert.Equal(t, 3, p.Len())
}

func TestPlannerRejectsEmptyText(t *testing.T) {
	p := NewPlanner()
	_, err := p.Add("   ", nil)
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.NotErrorIs(t, err, ErrPlanFull)
	assert.Zero(t, p.Len())
}

func TestPlannerRemove(t *testing.T) {
	p := NewPlanner()
	first, _ := p.Add("one", nil)
	_, _ = p.Add("two", nil)

	assert.True(t, p.Remove(first.ID))
	assert.False(t, p.Remove(first.ID))

	entries := p.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "two", entries[0].Text)

	_, err := p.Add("three", nil)
	require.NoError(t, err)
	_, err = p.Add("four", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())
}
