package supervisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
)

// Timing holds every interval and timeout the supervisor uses.
type Timing struct {
	// DetectTimeout bounds the synchronous detection after a client launch.
	DetectTimeout time.Duration
	// AttachTimeout bounds the background attach watcher.
	AttachTimeout time.Duration
	// AttemptTimeout bounds each rank detection inside the watcher.
	AttemptTimeout time.Duration
	// RetryInterval is the pause between watcher attempts.
	RetryInterval time.Duration
	// PollInterval is the detector scan interval.
	PollInterval time.Duration
	// WaitInterval is the Handle.Wait polling interval.
	WaitInterval time.Duration
}

// DefaultTiming returns the production intervals.
func DefaultTiming() Timing {
	return Timing{
		DetectTimeout:  5 * time.Second,
		AttachTimeout:  90 * time.Second,
		AttemptTimeout: 3 * time.Second,
		RetryInterval:  time.Second,
		PollInterval:   time.Second,
		WaitInterval:   250 * time.Millisecond,
	}
}

// TimingFromConfig overlays the configured durations on DefaultTiming.
// Empty values keep the default.
func TimingFromConfig(cfg config.SupervisorConfig) (Timing, error) {
	t := DefaultTiming()
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"detect_timeout", cfg.DetectTimeout, &t.DetectTimeout},
		{"attach_timeout", cfg.AttachTimeout, &t.AttachTimeout},
		{"attempt_timeout", cfg.AttemptTimeout, &t.AttemptTimeout},
		{"retry_interval", cfg.RetryInterval, &t.RetryInterval},
		{"poll_interval", cfg.PollInterval, &t.PollInterval},
		{"wait_interval", cfg.WaitInterval, &t.WaitInterval},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(f.value))
		if err != nil {
			return Timing{}, fmt.Errorf("supervisor.%s: %w", f.name, err)
		}
		if d <= 0 {
			return Timing{}, fmt.Errorf("supervisor.%s must be positive", f.name)
		}
		*f.dst = d
	}
	return t, nil
}
