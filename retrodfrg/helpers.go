package retrodfrg

import (
	"time"
)

// WaitWithStop keeps the final screen visible for a moment, or until
// the user requests to stop.
func WaitWithStop(u *UI, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-u.stopChan:
		return ErrInterrupted
	case <-timer.C:
		return nil
	}
}
