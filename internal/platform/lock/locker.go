// Package lock provides keyed mutual exclusion for statement ingestion.
package lock

import "errors"

// ErrNotAcquired is returned when a lock stays held past the wait timeout
var ErrNotAcquired = errors.New("lock not acquired")
