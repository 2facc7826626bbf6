// Package health periodically snapshots process and system resource
// usage and hands it to a logger, so a long-running supervisor process
// has some visibility without a management API. Adapted from the
// teacher's handlers.Health/Stats gopsutil usage, which served the
// same numbers over a REST endpoint; this ecosystem has no such
// endpoint, so the snapshot goes to the Logger instead.
package health

import (
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fu-berlin/dnslab/internal/logging"
)

// Snapshot is one resource reading.
type Snapshot struct {
	Goroutines  int
	CPUPercent  float64
	MemUsedMB   float64
	MemPercent  float64
	SampledAt   time.Time
	SampleError error
}

// Sample takes one reading. CPU sampling blocks for sampleWindow to
// compute a usage percentage; callers on a tight interval should keep
// sampleWindow well under that interval.
func Sample(sampleWindow time.Duration) Snapshot {
	s := Snapshot{Goroutines: runtime.NumGoroutine(), SampledAt: time.Now()}

	if cpuPercent, err := cpu.Percent(sampleWindow, false); err == nil && len(cpuPercent) > 0 {
		s.CPUPercent = cpuPercent[0]
	} else if err != nil {
		s.SampleError = err
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemUsedMB = float64(vm.Used) / 1024 / 1024
		s.MemPercent = vm.UsedPercent
	} else if err != nil && s.SampleError == nil {
		s.SampleError = err
	}

	return s
}

// Reporter samples at a fixed interval and logs each snapshot until
// stopped.
type Reporter struct {
	Interval     time.Duration
	SampleWindow time.Duration
	Logger       *logging.Logger

	stop chan struct{}
}

// Start begins sampling on its own goroutine. Stop ends it.
func (r *Reporter) Start() {
	r.stop = make(chan struct{})
	go r.loop()
}

// Stop ends the sampling goroutine.
func (r *Reporter) Stop() {
	if r.stop != nil {
		close(r.stop)
	}
}

func (r *Reporter) loop() {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			snap := Sample(r.SampleWindow)
			if r.Logger == nil {
				continue
			}
			if snap.SampleError != nil {
				r.Logger.Warn("health sample failed", "err", snap.SampleError)
				continue
			}
			r.Logger.Info(fmt.Sprintf("health: goroutines=%d cpu=%.1f%% mem=%.1fMB (%.1f%%)",
				snap.Goroutines, snap.CPUPercent, snap.MemUsedMB, snap.MemPercent))
		}
	}
}
