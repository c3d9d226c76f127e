package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/biodun42/NexThread/internal/models"
)

func TestDescribeOnlineIgnoresLastSeen(t *testing.T) {
	now := time.Now()
	a := &models.Account{IsOnline: true, LastSeen: now.Add(-48 * time.Hour)}
	st, text := Describe(a, now)
	assert.Equal(t, StatusOnline, st)
	assert.Equal(t, "Online", text)
}

func TestDescribeAwayWindow(t *testing.T) {
	now := time.Now()

	a := &models.Account{LastSeen: now.Add(-2 * time.Minute)}
	st, text := Describe(a, now)
	assert.Equal(t, StatusAway, st)
	assert.Equal(t, "Away", text)

	a = &models.Account{LastSeen: now.Add(-6 * time.Minute)}
	st, text = Describe(a, now)
	assert.Equal(t, StatusOffline, st)
	assert.Contains(t, text, "Last seen ")
}

func TestDescribeNoRecordIsOffline(t *testing.T) {
	st, text := Describe(nil, time.Now())
	assert.Equal(t, StatusOffline, st)
	assert.Equal(t, "Offline", text)

	st, text = Describe(&models.Account{}, time.Now())
	assert.Equal(t, StatusOffline, st)
	assert.Equal(t, "Offline", text)
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, time.September, 1, 14, 0, 0, 0, time.UTC)

	sameDay := now.Add(-3 * time.Hour)
	assert.Equal(t, "11:00", formatTimestamp(sameDay, now))

	sameYear := time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mar 5", formatTimestamp(sameYear, now))

	older := time.Date(2024, time.December, 31, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "Dec 31, 2024", formatTimestamp(older, now))
}
