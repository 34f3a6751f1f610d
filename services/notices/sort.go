package notices

import (
	"slices"
	"unifeed-backend/lib/textutil"
)

// sortEvents orders events newest first, events without a readable date keep their
// position relative to each other.
func sortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		_, _, _, okA := textutil.ParseDMY(a.Date)
		_, _, _, okB := textutil.ParseDMY(b.Date)
		switch {
		case okA && okB:
			return textutil.CompareDMYDesc(a.Date, b.Date)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
}
