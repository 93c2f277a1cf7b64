package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ncecere/ai_media_studio/internal/config"
	"github.com/ncecere/ai_media_studio/internal/providers"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// Check is the outcome of one dependency probe.
type Check struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Report is the payload served on /healthz.
type Report struct {
	Status    string             `json:"status"`
	Checks    map[string]Check   `json:"checks"`
	Providers []providers.Status `json:"providers"`
	CheckedAt time.Time          `json:"checked_at"`
}

// Monitor probes the service's optional dependencies and remembers the last
// result so status transitions can be logged.
type Monitor struct {
	redis     *redis.Client
	providers *providers.Set
	interval  time.Duration
	timeout   time.Duration
	now       func() time.Time

	mu        sync.RWMutex
	last      Report
	startOnce sync.Once
}

// NewMonitor constructs a monitor using the health configuration.
func NewMonitor(redisClient *redis.Client, set *providers.Set, cfg config.HealthConfig) *Monitor {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > interval {
		timeout = 2 * time.Second
	}

	return &Monitor{
		redis:     redisClient,
		providers: set,
		interval:  interval,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Start begins the monitoring loop until ctx is canceled. Without Redis there
// is nothing to poll and Start is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil || m.redis == nil {
		return
	}
	m.startOnce.Do(func() {
		go m.run(ctx)
	})
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check probes every dependency now, stores the report and returns it.
func (m *Monitor) Check(ctx context.Context) Report {
	report := Report{
		Status:    StatusOK,
		Checks:    make(map[string]Check),
		Providers: m.providers.Statuses(),
		CheckedAt: m.now().UTC(),
	}

	if m.redis != nil {
		check := m.probe(ctx, func(ctx context.Context) error {
			return m.redis.Ping(ctx).Err()
		})
		if check.Status != StatusOK {
			report.Status = StatusDegraded
		}
		report.Checks["redis"] = check
	}

	m.mu.Lock()
	previous := m.last.Status
	m.last = report
	m.mu.Unlock()

	if previous != "" && previous != report.Status {
		slog.Warn("health status changed", "from", previous, "to", report.Status)
	}
	return report
}

// Latest returns the most recent report without probing.
func (m *Monitor) Latest() (Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.last.Status != ""
}

func (m *Monitor) probe(ctx context.Context, fn func(context.Context) error) Check {
	timeoutCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := fn(timeoutCtx)
	check := Check{
		Status:    StatusOK,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		check.Status = StatusError
		check.Error = err.Error()
	}
	return check
}
