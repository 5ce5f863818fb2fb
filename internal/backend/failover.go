package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/pkg/metrics"
)

// failover tracks which base URL is currently serving. The active URL is
// sticky: it is shared by every call until a probe against it fails.
type failover struct {
	mu        sync.Mutex
	active    string
	primary   string
	fallbacks []string

	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

func newFailover(primary string, fallbacks []string, timeout time.Duration, client *http.Client, logger *zap.Logger) *failover {
	return &failover{
		active:    trimBase(primary),
		primary:   trimBase(primary),
		fallbacks: trimAll(fallbacks),
		timeout:   timeout,
		http:      client,
		logger:    logger,
	}
}

func trimBase(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

func trimAll(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = trimBase(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// current returns the active base URL without probing.
func (f *failover) current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// candidates lists active, primary, then fallbacks, without duplicates.
func (f *failover) candidates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, u := range append([]string{f.active, f.primary}, f.fallbacks...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func (f *failover) setActive(base string) {
	f.mu.Lock()
	prev := f.active
	f.active = base
	f.mu.Unlock()

	if prev != base {
		metrics.BackendFailovers.Inc()
		f.logger.Warn("switched backend base url", zap.String("from", prev), zap.String("to", base))
	}
}

// resolve probes the candidates once, in order, and makes the first healthy
// one active. The lock is not held while probing.
func (f *failover) resolve(ctx context.Context, family string) (string, error) {
	tried := f.candidates()
	for _, base := range tried {
		if f.probe(ctx, base, family) {
			f.setActive(base)
			return base, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &TimeoutError{Endpoint: "/" + family + "/"}
	}
	return "", &ConnectionError{Tried: tried, Err: ctx.Err()}
}

func (f *failover) probe(ctx context.Context, base, family string) bool {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/"+family+"/", nil)
	if err != nil {
		return false
	}
	resp, err := f.http.Do(req)
	if err != nil {
		f.logger.Debug("health probe failed", zap.String("base_url", base), zap.Error(err))
		return false
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		f.logger.Debug("health probe unhealthy", zap.String("base_url", base), zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}
