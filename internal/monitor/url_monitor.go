// Package monitor periodically checks that link targets are still reachable.
package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/axellelanca/shortlinks/internal/metrics"
	"github.com/axellelanca/shortlinks/internal/models"
)

// LinkLister is the part of the link store the monitor reads.
type LinkLister interface {
	GetAllLinks(ctx context.Context) ([]models.Link, error)
}

// UrlMonitor HEAD-checks every link target on a fixed interval and logs when
// a target changes between accessible and inaccessible.
type UrlMonitor struct {
	links       LinkLister
	interval    time.Duration
	knownStates map[string]bool // link ID -> accessible
	mu          sync.Mutex
	httpClient  *http.Client
}

func NewUrlMonitor(links LinkLister, interval time.Duration) *UrlMonitor {
	return &UrlMonitor{
		links:       links,
		interval:    interval,
		knownStates: make(map[string]bool),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Start checks immediately, then on every tick, until ctx is cancelled. A
// non-positive interval disables the monitor.
func (m *UrlMonitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		log.Info().Msg("url monitor disabled")
		return
	}
	log.Info().Dur("interval", m.interval).Msg("starting url monitor")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkUrls(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("url monitor stopped")
			return
		case <-ticker.C:
			m.checkUrls(ctx)
		}
	}
}

// State returns the last observed state of a link.
func (m *UrlMonitor) State(linkID string) (accessible, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accessible, known = m.knownStates[linkID]
	return accessible, known
}

func (m *UrlMonitor) checkUrls(ctx context.Context) {
	links, err := m.links.GetAllLinks(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to retrieve links for monitoring")
		return
	}

	down := 0
	for _, link := range links {
		if ctx.Err() != nil {
			return
		}
		currentState := m.isUrlAccessible(ctx, link.OriginalURL)
		if !currentState {
			down++
		}

		m.mu.Lock()
		previousState, exists := m.knownStates[link.ID]
		m.knownStates[link.ID] = currentState
		m.mu.Unlock()

		if !exists {
			log.Debug().Str("alias", link.Alias).Str("url", link.OriginalURL).
				Str("state", formatState(currentState)).Msg("initial link state")
			continue
		}
		if currentState != previousState {
			log.Warn().Str("alias", link.Alias).Str("url", link.OriginalURL).
				Str("from", formatState(previousState)).Str("to", formatState(currentState)).
				Msg("link state changed")
		}
	}
	metrics.InaccessibleLinks.Set(float64(down))
	log.Debug().Int("links", len(links)).Int("inaccessible", down).Msg("url status verification completed")
}

// isUrlAccessible treats any 2xx or 3xx answer to a HEAD request as reachable.
func (m *UrlMonitor) isUrlAccessible(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("invalid monitor request")
		return false
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("url unreachable")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func formatState(accessible bool) string {
	if accessible {
		return "ACCESSIBLE"
	}
	return "INACCESSIBLE"
}
