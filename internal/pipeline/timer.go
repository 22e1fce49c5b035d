package pipeline

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceSample is the memory and CPU state at one instant.
type ResourceSample struct {
	RSSBytes      uint64
	SystemMemUsed float64 // percent
	CPUPercent    float64 // process CPU since start
}

// sampleResources reads process RSS and system memory usage. Sampling
// failures leave the affected fields zero.
func sampleResources(proc *process.Process) ResourceSample {
	var s ResourceSample
	if proc != nil {
		if info, err := proc.MemoryInfo(); err == nil {
			s.RSSBytes = info.RSS
		}
		if pct, err := proc.CPUPercent(); err == nil {
			s.CPUPercent = pct
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.SystemMemUsed = vm.UsedPercent
	}
	return s
}

// StageTimer measures the duration and memory growth of one stage.
type StageTimer struct {
	start  time.Time
	name   string
	proc   *process.Process
	before ResourceSample
	log    zerolog.Logger
}

// NewStageTimer starts timing the named stage.
func NewStageTimer(name string, log zerolog.Logger) *StageTimer {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug().Err(err).Msg("Process stats unavailable")
		proc = nil
	}
	return &StageTimer{
		start:  time.Now(),
		name:   name,
		proc:   proc,
		before: sampleResources(proc),
		log:    log,
	}
}

// Stop logs the stage duration with its resource usage and returns the duration.
func (t *StageTimer) Stop() time.Duration {
	duration := time.Since(t.start)
	after := sampleResources(t.proc)

	t.log.Info().
		Str("stage", t.name).
		Dur("duration", duration).
		Float64("duration_seconds", duration.Seconds()).
		Uint64("rss_mb", after.RSSBytes/1024/1024).
		Int64("rss_delta_mb", (int64(after.RSSBytes)-int64(t.before.RSSBytes))/1024/1024).
		Float64("process_cpu_percent", after.CPUPercent).
		Float64("system_mem_used_percent", after.SystemMemUsed).
		Msg("Stage finished")

	if duration > 30*time.Minute {
		t.log.Warn().
			Str("stage", t.name).
			Dur("duration", duration).
			Msg("Slow stage detected (>30m)")
	}
	return duration
}

// SystemLoad reports overall CPU usage over interval, for status output.
func SystemLoad(interval time.Duration) (float64, error) {
	pct, err := cpu.Percent(interval, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, nil
	}
	return pct[0], nil
}
