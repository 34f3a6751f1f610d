package commands

import (
	"bytes"
	"testing"
	"time"
	"unifeed-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestTimerMeasuresWhenCalled(t *testing.T) {
	clock := timezone.NewManualClock(time.Date(2024, time.February, 28, 9, 0, 0, 0, timezone.Location))
	out := &bytes.Buffer{}

	func() {
		defer timer(out, clock.Now)()
		clock.Advance(1500 * time.Millisecond)
	}()
	require.Equal(t, "took 1.5s\n", out.String())
}
