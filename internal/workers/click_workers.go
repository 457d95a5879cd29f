// Package workers persists click events off the redirect path.
package workers

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/axellelanca/shortlinks/internal/metrics"
	"github.com/axellelanca/shortlinks/internal/models"
	"github.com/axellelanca/shortlinks/internal/repository"
)

// Pool is a running set of click workers fed by a buffered channel it owns.
type Pool struct {
	wg     sync.WaitGroup
	mu     sync.RWMutex
	events chan models.ClickEvent
	closed bool
}

// StartClickWorkers launches workerCount goroutines draining events into
// clickRepo. The buffer holds bufferSize pending events.
func StartClickWorkers(ctx context.Context, workerCount, bufferSize int, clickRepo repository.ClickRepository) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	log.Info().Int("workers", workerCount).Int("buffer", bufferSize).Msg("starting click workers")

	p := &Pool{events: make(chan models.ClickEvent, bufferSize)}
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			clickWorker(ctx, id, p.events, clickRepo)
		}(i)
	}
	return p
}

// Publish queues event without blocking. It returns false when the buffer is
// full or the pool is stopped.
func (p *Pool) Publish(event models.ClickEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.events <- event:
		return true
	default:
		return false
	}
}

// Stop refuses further events, then blocks until the workers have drained
// the buffer. It is safe to call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	p.wg.Wait()
	log.Info().Msg("click workers stopped")
}

func clickWorker(ctx context.Context, id int, events <-chan models.ClickEvent, clickRepo repository.ClickRepository) {
	for event := range events {
		click := &models.Click{
			LinkID:    event.LinkID,
			Timestamp: event.Timestamp,
			Region:    event.Region,
			UserAgent: event.UserAgent,
			Referer:   event.Referer,
			IPAddress: event.IPAddress,
		}

		// ctx may already be cancelled during shutdown; the drain still has
		// to reach the database
		if err := clickRepo.CreateClick(context.WithoutCancel(ctx), click); err != nil {
			metrics.ClicksPersisted.WithLabelValues("error").Inc()
			log.Error().Err(err).Int("worker", id).Str("link", event.LinkID).Msg("failed to save click")
			continue
		}
		metrics.ClicksPersisted.WithLabelValues("ok").Inc()
		log.Debug().Int("worker", id).Str("link", event.LinkID).Msg("click recorded")
	}
}
