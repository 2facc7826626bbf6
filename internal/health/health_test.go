package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSampleReportsGoroutineCount(t *testing.T) {
	snap := Sample(10 * time.Millisecond)
	assert.Greater(t, snap.Goroutines, 0)
	assert.False(t, snap.SampledAt.IsZero())
}

func TestReporterStartStopDoesNotPanic(t *testing.T) {
	r := &Reporter{Interval: 5 * time.Millisecond, SampleWindow: time.Millisecond}
	r.Start()
	time.Sleep(20 * time.Millisecond)
	r.Stop()
}
