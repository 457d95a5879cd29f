package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/shortlinks/internal/models"
	"github.com/axellelanca/shortlinks/internal/repository"
	"github.com/axellelanca/shortlinks/internal/testutils"
)

func TestClickWorkersDrainOnStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := repository.NewClickRepository(testutils.NewDB(t))

	pool := StartClickWorkers(ctx, 3, 10, repo)
	for i := 0; i < 10; i++ {
		require.True(t, pool.Publish(models.ClickEvent{LinkID: "link-1", Region: "FR", Timestamp: time.Now(), UserAgent: "ua"}))
	}
	cancel()
	pool.Stop()

	count, err := repo.CountClicksByLinkID(context.Background(), "link-1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, count)

	recent, err := repo.ListRecentClicks(context.Background(), "link-1", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "FR", recent[0].Region)
	assert.Equal(t, "ua", recent[0].UserAgent)
}

func TestPublishAfterStopIsDropped(t *testing.T) {
	repo := repository.NewClickRepository(testutils.NewDB(t))
	pool := StartClickWorkers(context.Background(), 1, 4, repo)
	pool.Stop()

	assert.NotPanics(t, func() {
		assert.False(t, pool.Publish(models.ClickEvent{LinkID: "late"}))
	})
	assert.NotPanics(t, pool.Stop)
}

func TestPublishConcurrentWithStop(t *testing.T) {
	repo := repository.NewClickRepository(testutils.NewDB(t))
	pool := StartClickWorkers(context.Background(), 2, 8, repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				pool.Publish(models.ClickEvent{LinkID: "busy", Timestamp: time.Now()})
			}
		}()
	}
	// a send racing Stop must never hit the closed channel
	pool.Stop()
	wg.Wait()

	assert.False(t, pool.Publish(models.ClickEvent{LinkID: "busy"}))
}
