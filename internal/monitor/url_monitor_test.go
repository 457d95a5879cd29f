package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/axellelanca/shortlinks/internal/models"
)

type staticLinks []models.Link

func (s staticLinks) GetAllLinks(context.Context) ([]models.Link, error) {
	return s, nil
}

func TestCheckUrlsTracksStateChanges(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewUrlMonitor(staticLinks{
		{ID: "up", Alias: "up", OriginalURL: srv.URL},
		{ID: "bad", Alias: "bad", OriginalURL: "http://127.0.0.1:1/nothing"},
	}, time.Minute)

	m.checkUrls(context.Background())
	state, known := m.State("up")
	assert.True(t, known)
	assert.True(t, state)
	state, _ = m.State("bad")
	assert.False(t, state)

	healthy.Store(false)
	m.checkUrls(context.Background())
	state, _ = m.State("up")
	assert.False(t, state)
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewUrlMonitor(staticLinks{}, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestStartDisabled(t *testing.T) {
	// returns at once without a ticker
	NewUrlMonitor(staticLinks{}, 0).Start(context.Background())
}
