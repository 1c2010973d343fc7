package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseIntervalDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"15m", 15 * time.Minute, true},
		{"1h", time.Hour, true},
		{"4H", 4 * time.Hour, true},
		{" 1d ", 24 * time.Hour, true},
		{"1w", 7 * 24 * time.Hour, true},
		{"", 0, false},
		{"h", 0, false},
		{"0m", 0, false},
		{"-5m", 0, false},
		{"1x", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseIntervalDuration(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestAlignedSchedulerNextTimes(t *testing.T) {
	s := &AlignedScheduler{Interval: time.Hour, Offset: 10 * time.Second}
	now := time.Date(2026, 3, 1, 14, 25, 0, 0, time.UTC)
	nextClose, wakeAt, untilClose, wait := s.nextTimes(now)

	assert.Equal(t, time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), nextClose)
	assert.Equal(t, nextClose.Add(10*time.Second), wakeAt)
	assert.Equal(t, 35*time.Minute, untilClose)
	assert.Equal(t, 35*time.Minute+10*time.Second, wait)
}
