package chrono

import (
	"sync/atomic"
	"testing"
	"time"
	"unifeed-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardCron(t *testing.T) {
	rec := &telemetry.Recorder{}
	cronner := NewStandardCron(rec)
	defer cronner.Stop()

	var runs atomic.Int32
	require.NoError(t, cronner.Cron("@every 1s", func() {
		runs.Add(1)
	}))
	require.Eventually(t, func() bool {
		return runs.Load() > 0
	}, 5*time.Second, 100*time.Millisecond)

	require.Error(t, cronner.Cron("not a schedule", func() {}))
}

func TestCronRecoversPanics(t *testing.T) {
	rec := &telemetry.Recorder{}
	cronner := NewStandardCron(rec)
	defer cronner.Stop()

	require.NoError(t, cronner.Cron("@every 1s", func() {
		panic("boom")
	}))
	require.Eventually(t, func() bool {
		return len(rec.Reports("broken", "cron")) > 0
	}, 5*time.Second, 100*time.Millisecond)
}
