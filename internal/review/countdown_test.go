package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdownFiresOnce(t *testing.T) {
	clock := newFakeClock()
	fired := 0
	c := NewCountdown(5*time.Minute, clock, func() { fired++ })

	c.Start()
	assert.True(t, c.Running())
	clock.Advance(4 * time.Minute)
	assert.Equal(t, time.Minute, c.Remaining())
	assert.Equal(t, 0, fired)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, fired)
	assert.False(t, c.Running())
	assert.True(t, c.Done())
	assert.Equal(t, time.Duration(0), c.Remaining())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, fired)
}

func TestCountdownPauseKeepsElapsed(t *testing.T) {
	clock := newFakeClock()
	fired := 0
	c := NewCountdown(30*time.Minute, clock, func() { fired++ })

	c.Start()
	clock.Advance(10 * time.Minute)
	c.Toggle()
	assert.False(t, c.Running())
	assert.Equal(t, 20*time.Minute, c.Remaining())

	clock.Advance(time.Hour)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 20*time.Minute, c.Remaining())

	c.Toggle()
	assert.True(t, c.Running())
	clock.Advance(19 * time.Minute)
	assert.Equal(t, 0, fired)
	clock.Advance(time.Minute)
	assert.Equal(t, 1, fired)
}

func TestCountdownResetAndCancel(t *testing.T) {
	clock := newFakeClock()
	fired := 0
	c := NewCountdown(5*time.Minute, clock, func() { fired++ })

	c.Start()
	clock.Advance(2 * time.Minute)
	c.Reset()
	assert.False(t, c.Running())
	assert.Equal(t, 5*time.Minute, c.Remaining())
	clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, fired)

	c.Start()
	clock.Advance(time.Minute)
	c.Cancel()
	assert.Equal(t, 4*time.Minute, c.Remaining())
	clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, fired)
}

func TestCountdownRestartsAfterCompletion(t *testing.T) {
	clock := newFakeClock()
	fired := 0
	c := NewCountdown(time.Minute, clock, func() { fired++ })

	c.Start()
	clock.Advance(time.Minute)
	c.Resume()
	assert.False(t, c.Running())

	c.Start()
	assert.Equal(t, time.Minute, c.Remaining())
	clock.Advance(time.Minute)
	assert.Equal(t, 2, fired)
}

func TestCountdownsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	a := NewCountdown(30*time.Minute, clock, nil)
	b := NewCountdown(5*time.Minute, clock, nil)

	a.Start()
	b.Start()
	clock.Advance(time.Minute)
	b.Pause()
	a.Reset()

	assert.False(t, a.Running())
	assert.Equal(t, 30*time.Minute, a.Remaining())
	assert.Equal(t, 4*time.Minute, b.Remaining())

	b.Resume()
	clock.Advance(4 * time.Minute)
	assert.True(t, b.Done())
	assert.False(t, a.Done())
}
