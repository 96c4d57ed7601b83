package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("21:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 21 * * *", spec)

	for _, bad := range []string{"", "21", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestScheduleDailyNextRun(t *testing.T) {
	scheduler := NewSchedulerService(time.UTC)
	id, err := scheduler.ScheduleDaily("20:30", func() {})
	require.NoError(t, err)

	scheduler.Start()
	defer scheduler.Stop()

	next := scheduler.Next(id)
	require.False(t, next.IsZero())
	assert.Equal(t, 20, next.Hour())
	assert.Equal(t, 30, next.Minute())
}

func TestScheduleIntervalRejectsNonPositive(t *testing.T) {
	scheduler := NewSchedulerService(time.UTC)
	_, err := scheduler.ScheduleInterval(0, func() {})
	assert.Error(t, err)
}
