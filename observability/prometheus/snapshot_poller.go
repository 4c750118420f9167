package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-timer/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// TimerSnapshotProvider provides current timer stats snapshots.
type TimerSnapshotProvider interface {
	Stats() core.TimerStats
}

// SnapshotPoller periodically exports Timer Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	timersMu sync.RWMutex
	timers   map[string]TimerSnapshotProvider

	timerPending *prom.GaugeVec
	timerStopped *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	timerPending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timer",
		Name:      "pending_snapshot",
		Help:      "Number of pending task records per timer.",
	}, []string{"timer"})
	timerStopped := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "timer",
		Name:      "stopped",
		Help:      "Timer stopped state (1=stopped, 0=running).",
	}, []string{"timer"})

	var err error
	if timerPending, err = registerCollector(reg, timerPending); err != nil {
		return nil, err
	}
	if timerStopped, err = registerCollector(reg, timerStopped); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:     interval,
		timers:       make(map[string]TimerSnapshotProvider),
		timerPending: timerPending,
		timerStopped: timerStopped,
	}, nil
}

// AddTimer adds or replaces a timer snapshot provider by name.
func (p *SnapshotPoller) AddTimer(name string, provider TimerSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "timer")
	p.timersMu.Lock()
	p.timers[name] = provider
	p.timersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.timersMu.RLock()
	for name, provider := range p.timers {
		stats := provider.Stats()
		p.timerPending.WithLabelValues(name).Set(float64(stats.Pending))
		if stats.Stopped {
			p.timerStopped.WithLabelValues(name).Set(1)
		} else {
			p.timerStopped.WithLabelValues(name).Set(0)
		}
	}
	p.timersMu.RUnlock()
}
