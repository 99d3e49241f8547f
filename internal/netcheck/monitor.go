package netcheck

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"menupos/internal/config"
	"menupos/internal/metrics"
	"menupos/internal/models"

	"github.com/rs/zerolog"
)

// Monitor tracks reachability of the remote network. It unifies two inputs
// into one signal: its own periodic probe and any push notifications the
// host environment supplies via SetOnline. Transitions are fanned out to
// subscribers; flapping is not debounced here.
type Monitor struct {
	probeURL string
	timeout  time.Duration
	interval time.Duration
	client   *http.Client
	logger   *zerolog.Logger

	online atomic.Bool
	mu     sync.Mutex
	subs   []chan bool
}

func New(cfg config.ProbeConfig, logger *zerolog.Logger) *Monitor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(models.DefaultProbeTimeoutSeconds) * time.Second
	}
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Duration(models.DefaultSyncIntervalSeconds) * time.Second
	}
	probeURL := cfg.URL
	if probeURL == "" {
		probeURL = models.DefaultProbeURL
	}

	return &Monitor{
		probeURL: probeURL,
		timeout:  timeout,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// CheckOnline performs one reachability probe. Any response counts as
// online; any transport error or timeout counts as offline. It never
// returns an error and never hangs past the probe timeout.
func (m *Monitor) CheckOnline(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Online returns the last believed state without probing.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Subscribe returns a channel that receives the new state on every
// transition. The channel is buffered; a slow reader misses intermediate
// flaps, never blocks the monitor.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 4)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// SetOnline feeds an externally observed state into the monitor. The
// polling loop uses the same path, so push and poll produce one signal.
func (m *Monitor) SetOnline(online bool) {
	prev := m.online.Swap(online)
	metrics.SetOnline(online)
	if prev == online {
		return
	}

	m.logger.Info().Bool("online", online).Msg("connectivity changed")

	m.mu.Lock()
	subs := append([]chan bool(nil), m.subs...)
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- online:
		default:
		}
	}
}

// Start runs the polling loop until ctx is done. The first probe fires
// immediately so the process starts with a fresh belief.
func (m *Monitor) Start(ctx context.Context) {
	m.SetOnline(m.CheckOnline(ctx))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOnline(m.CheckOnline(ctx))
		}
	}
}
