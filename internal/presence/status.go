package presence

import (
	"time"

	"github.com/biodun42/NexThread/internal/models"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// awayWindow is how recently an offline account must have been seen to
// render as "away" rather than "last seen".
const awayWindow = 5 * time.Minute

// Describe renders a peer's presence for display. When the account is
// online its last-seen value is ignored; when offline, a last-seen
// under the away window shows as away, anything older as a relative
// "last seen" line.
func Describe(a *models.Account, now time.Time) (Status, string) {
	if a == nil {
		return StatusOffline, "Offline"
	}
	if a.IsOnline {
		return StatusOnline, "Online"
	}
	if a.LastSeen.IsZero() {
		return StatusOffline, "Offline"
	}
	if now.Sub(a.LastSeen) < awayWindow {
		return StatusAway, "Away"
	}
	return StatusOffline, "Last seen " + formatTimestamp(a.LastSeen, now)
}

// formatTimestamp: clock time inside 24 hours, month and day inside
// the year, full date otherwise.
func formatTimestamp(ts, now time.Time) string {
	if now.Sub(ts) < 24*time.Hour {
		return ts.Format("15:04")
	}
	if ts.Year() == now.Year() {
		return ts.Format("Jan 2")
	}
	return ts.Format("Jan 2, 2006")
}
