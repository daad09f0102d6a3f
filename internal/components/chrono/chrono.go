package chrono

import (
	"time"
)

var taipei *time.Location

func init() {
	var err error
	taipei, err = time.LoadLocation("Asia/Taipei")
	if err != nil {
		// no tzdata available, Taiwan has had no DST since 1979
		taipei = time.FixedZone("CST", 8*60*60)
	}
}

// Taipei returns a [*time.Location] for Asia/Taipei
func Taipei() *time.Location {
	return taipei
}

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in Asia/Taipei.
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the standard implementation of API using the standard library.
type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (StandardImpl) Now() time.Time {
	return time.Now().In(taipei)
}

func (StandardImpl) Location() *time.Location {
	return taipei
}

// FixedImpl always returns the same instant, it is meant for tests.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At.In(taipei)
}

func (FixedImpl) Location() *time.Location {
	return taipei
}

const rocEpochOffset = 1911

// FromROC builds a calendar date from a year in the ROC calendar (民國) used by
// the portal, the result is midnight in Asia/Taipei.
func FromROC(rocYear int, month time.Month, day int) time.Time {
	return time.Date(rocYear+rocEpochOffset, month, day, 0, 0, 0, 0, taipei)
}
