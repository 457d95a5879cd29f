package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/shortlinks/internal/models"
	"github.com/axellelanca/shortlinks/internal/testutils"
)

func newLink(ownerID, alias, url string) *models.Link {
	link := &models.Link{OwnerID: ownerID, OriginalURL: url}
	link.SetAlias(alias, "sho.rt")
	return link
}

func TestCreateOwnedLinkAppendsToOwner(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)
	repo := NewLinkRepository(db)
	users := NewUserRepository(db)
	owner := testutils.CreateUser(t, db, "u1@example.com")

	first := newLink(owner.ID, "first", "https://a.com")
	second := newLink(owner.ID, "second", "https://b.com")
	require.NoError(t, repo.CreateOwnedLink(ctx, first))
	require.NoError(t, repo.CreateOwnedLink(ctx, second))

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, []models.Region{}, first.Regions)

	reloaded, err := users.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, reloaded.LinkIDs)
}

func TestCreateOwnedLinkUnknownOwner(t *testing.T) {
	repo := NewLinkRepository(testutils.NewDB(t))

	err := repo.CreateOwnedLink(context.Background(), newLink("missing", "promo", "https://a.com"))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateOwnedLinkDuplicateAlias(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)
	repo := NewLinkRepository(db)
	owner := testutils.CreateUser(t, db, "u1@example.com")

	require.NoError(t, repo.CreateOwnedLink(ctx, newLink(owner.ID, "promo", "https://a.com")))
	err := repo.CreateOwnedLink(ctx, newLink(owner.ID, "promo", "https://b.com"))

	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "got %v", err)

	reloaded, err := NewUserRepository(db).GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.LinkIDs, 1, "failed insert must not touch the owner collection")
}

func TestAliasExists(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)
	repo := NewLinkRepository(db)
	owner := testutils.CreateUser(t, db, "u1@example.com")
	require.NoError(t, repo.CreateOwnedLink(ctx, newLink(owner.ID, "promo", "https://a.com")))

	exists, err := repo.AliasExists(ctx, "promo")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.AliasExists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecordClickAggregatesRegions(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)
	repo := NewLinkRepository(db)
	owner := testutils.CreateUser(t, db, "u1@example.com")
	link := newLink(owner.ID, "promo", "https://a.com")
	require.NoError(t, repo.CreateOwnedLink(ctx, link))

	for _, region := range []string{"A", "A", "B", models.UnknownRegion} {
		require.NoError(t, repo.RecordClick(ctx, link.ID, region))
	}

	got, err := repo.GetLinkByAlias(ctx, "promo")
	require.NoError(t, err)
	assert.EqualValues(t, 4, got.TotalClicks)

	type pair struct {
		Name   string
		Clicks int64
	}
	var regions []pair
	for _, r := range got.Regions {
		regions = append(regions, pair{r.Name, r.Clicks})
	}
	assert.Equal(t, []pair{{"A", 2}, {"B", 1}, {models.UnknownRegion, 1}}, regions)
}

func TestRecordClickConcurrent(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)
	repo := NewLinkRepository(db)
	owner := testutils.CreateUser(t, db, "u1@example.com")
	link := newLink(owner.ID, "promo", "https://a.com")
	require.NoError(t, repo.CreateOwnedLink(ctx, link))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.RecordClick(ctx, link.ID, "FR"))
		}()
	}
	wg.Wait()

	got, err := repo.GetLinkByAlias(ctx, "promo")
	require.NoError(t, err)
	assert.EqualValues(t, n, got.TotalClicks)
	require.Len(t, got.Regions, 1)
	assert.EqualValues(t, n, got.Regions[0].Clicks)
}

func TestRecordClickUnknownLink(t *testing.T) {
	repo := NewLinkRepository(testutils.NewDB(t))

	err := repo.RecordClick(context.Background(), "missing", "FR")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateLinkKeepsCounters(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)
	repo := NewLinkRepository(db)
	owner := testutils.CreateUser(t, db, "u1@example.com")
	link := newLink(owner.ID, "promo", "https://a.com")
	require.NoError(t, repo.CreateOwnedLink(ctx, link))
	require.NoError(t, repo.RecordClick(ctx, link.ID, "FR"))

	// link still holds TotalClicks == 0 in memory
	link.SetAlias("renamed", "sho.rt")
	link.OriginalURL = "https://b.com"
	require.NoError(t, repo.UpdateLink(ctx, link))

	got, err := repo.GetLinkByAlias(ctx, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "https://b.com", got.OriginalURL)
	assert.Equal(t, "https://sho.rt/renamed", got.CanonicalURL)
	assert.EqualValues(t, 1, got.TotalClicks)

	_, err = repo.GetLinkByAlias(ctx, "promo")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteOwnedLink(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)
	repo := NewLinkRepository(db)
	owner := testutils.CreateUser(t, db, "u1@example.com")
	keep := newLink(owner.ID, "keep", "https://a.com")
	drop := newLink(owner.ID, "drop", "https://b.com")
	require.NoError(t, repo.CreateOwnedLink(ctx, keep))
	require.NoError(t, repo.CreateOwnedLink(ctx, drop))
	require.NoError(t, repo.RecordClick(ctx, drop.ID, "FR"))

	require.NoError(t, repo.DeleteOwnedLink(ctx, drop))

	links, err := repo.ListLinksByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "keep", links[0].Alias)

	reloaded, err := NewUserRepository(db).GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, reloaded.LinkIDs)

	var regions int64
	require.NoError(t, db.Model(&models.Region{}).Where("link_id = ?", drop.ID).Count(&regions).Error)
	assert.Zero(t, regions)
}

func TestListLinksByOwnerFiltersByOwner(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)
	repo := NewLinkRepository(db)
	u1 := testutils.CreateUser(t, db, "u1@example.com")
	u2 := testutils.CreateUser(t, db, "u2@example.com")
	require.NoError(t, repo.CreateOwnedLink(ctx, newLink(u1.ID, "one", "https://a.com")))
	require.NoError(t, repo.CreateOwnedLink(ctx, newLink(u2.ID, "two", "https://b.com")))

	links, err := repo.ListLinksByOwner(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "one", links[0].Alias)
	assert.Equal(t, []models.Region{}, links[0].Regions)

	all, err := repo.GetAllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
