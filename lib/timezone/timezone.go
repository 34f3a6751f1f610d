package timezone

import (
	"sync"
	"time"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Istanbul")
	if err != nil {
		// hosts without tzdata, Turkey has been on a fixed +03:00 since 2016
		Location = time.FixedZone("TRT", 3*60*60)
	}
}

// force timezone to be in Istanbul, the site publishes menus and notices
// by local day and our servers do not necessarily run there.
func Now() time.Time {
	return time.Now().In(Location)
}

// Clock returns the current time, components take one so tests can move time.
type Clock func() time.Time

// OrNow returns c, or Now when c is nil.
func (c Clock) OrNow() Clock {
	if c == nil {
		return Now
	}
	return c
}

// ManualClock is a Clock whose time only changes when told to.
type ManualClock struct {
	mutex sync.Mutex
	now   time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (m *ManualClock) Now() time.Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.now
}

func (m *ManualClock) Advance(d time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = m.now.Add(d)
}
