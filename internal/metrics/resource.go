package metrics

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceSampler periodically records this process's own CPU and
// memory usage, an ambient operability concern independent of the
// broadcast algorithm. It never affects admission or eviction
// decisions — it exists purely for the operator.
type ResourceSampler struct {
	collectors *Collectors
	logger     zerolog.Logger
	proc       *process.Process
}

// NewResourceSampler constructs a sampler for the current process. If
// the process handle cannot be obtained the sampler still runs but logs
// once and reports zero values thereafter.
func NewResourceSampler(c *Collectors, logger zerolog.Logger) *ResourceSampler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warn().Err(err).Msg("resource sampler: failed to open process handle")
		proc = nil
	}
	return &ResourceSampler{collectors: c, logger: logger, proc: proc}
}

// Run samples at the given interval until ctx is cancelled.
func (r *ResourceSampler) Run(ctx context.Context, interval time.Duration) {
	if r.proc == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sample()
		}
	}
}

func (r *ResourceSampler) sample() {
	if memInfo, err := r.proc.MemoryInfo(); err == nil {
		r.collectors.ResidentMemoryBytes.Set(float64(memInfo.RSS))
	}
	if pct, err := r.proc.CPUPercent(); err == nil {
		r.collectors.CPUPercent.Set(pct)
	}
}
