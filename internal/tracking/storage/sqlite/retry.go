package sqlite

import (
	"strings"
	"time"

	"github.com/banshee-data/motiontrack/internal/timeutil"
)

const (
	maxBusyAttempts = 5
	busyBaseDelay   = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a lock contention error worth
// retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn up to maxBusyAttempts times, backing off
// exponentially while the database reports contention. Other errors are
// returned immediately.
func retryOnBusy(clock timeutil.Clock, fn func() error) error {
	delay := busyBaseDelay
	var err error
	for attempt := 1; attempt <= maxBusyAttempts; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyAttempts {
			clock.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
