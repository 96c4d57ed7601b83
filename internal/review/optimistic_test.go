package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimisticKeepsValueOnSuccess(t *testing.T) {
	value := false
	var persisted []bool

	err := Optimistic(context.Background(),
		func() bool { return value },
		func(v bool) { value = v },
		func(v bool) bool { return !v },
		func(_ context.Context, v bool) error {
			persisted = append(persisted, v)
			return nil
		})

	require.NoError(t, err)
	assert.True(t, value)
	assert.Equal(t, []bool{true}, persisted)
}

func TestOptimisticRollsBackOnFailure(t *testing.T) {
	value := false
	seenDuringWrite := false
	boom := errors.New("store down")

	err := Optimistic(context.Background(),
		func() bool { return value },
		func(v bool) { value = v },
		func(v bool) bool { return !v },
		func(_ context.Context, v bool) error {
			seenDuringWrite = value
			return boom
		})

	assert.ErrorIs(t, err, boom)
	assert.True(t, seenDuringWrite)
	assert.False(t, value)
}
