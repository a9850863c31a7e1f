package infrastructure

import (
	"time"

	"prizepool/domain/interfaces"
)

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

var _ interfaces.Clock = SystemClock{}

// Now returns the current time in UTC
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
