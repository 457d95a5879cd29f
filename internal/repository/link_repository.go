package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/axellelanca/shortlinks/internal/models"
)

// LinkRepository is the short-link store. Methods that touch the owner's
// link collection do so in the same transaction as the link write.
type LinkRepository interface {
	CreateOwnedLink(ctx context.Context, link *models.Link) error
	GetLinkByAlias(ctx context.Context, alias string) (*models.Link, error)
	AliasExists(ctx context.Context, alias string) (bool, error)
	UpdateLink(ctx context.Context, link *models.Link) error
	RecordClick(ctx context.Context, linkID, region string) error
	DeleteOwnedLink(ctx context.Context, link *models.Link) error
	ListLinksByOwner(ctx context.Context, ownerID string) ([]models.Link, error)
	GetAllLinks(ctx context.Context) ([]models.Link, error)
}

// GormLinkRepository implements LinkRepository with GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// IsUniqueViolation reports whether err comes from a unique index, whether or
// not the driver translated it to gorm.ErrDuplicatedKey.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func orderedRegions(db *gorm.DB) *gorm.DB {
	return db.Order("link_regions.id ASC")
}

// CreateOwnedLink inserts link and appends its ID to the owner's collection.
// It returns gorm.ErrRecordNotFound when the owner does not exist.
func (r *GormLinkRepository) CreateOwnedLink(ctx context.Context, link *models.Link) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.First(&owner, "id = ?", link.OwnerID).Error; err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(link).Error; err != nil {
			return errors.Wrap(err, "failed to create link")
		}

		owner.LinkIDs = append(owner.LinkIDs, link.ID)
		if err := tx.Model(&owner).Select("link_ids").Updates(&owner).Error; err != nil {
			return errors.Wrapf(err, "failed to append link to owner %s", owner.ID)
		}

		if link.Regions == nil {
			link.Regions = []models.Region{}
		}
		return nil
	})
}

// GetLinkByAlias loads a link and its regions in insertion order.
// It returns gorm.ErrRecordNotFound when no link has that alias.
func (r *GormLinkRepository) GetLinkByAlias(ctx context.Context, alias string) (*models.Link, error) {
	var link models.Link
	err := r.db.WithContext(ctx).
		Preload("Regions", orderedRegions).
		Where("alias = ?", alias).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	if link.Regions == nil {
		link.Regions = []models.Region{}
	}
	return &link, nil
}

func (r *GormLinkRepository) AliasExists(ctx context.Context, alias string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Link{}).Where("alias = ?", alias).Count(&count).Error; err != nil {
		return false, errors.Wrapf(err, "failed to check alias %q", alias)
	}
	return count > 0, nil
}

// UpdateLink persists the mutable fields of link. Counters are left alone so
// a concurrent RecordClick is never overwritten.
func (r *GormLinkRepository) UpdateLink(ctx context.Context, link *models.Link) error {
	err := r.db.WithContext(ctx).
		Model(link).
		Omit(clause.Associations).
		Select("original_url", "alias", "canonical_url", "updated_at").
		Updates(link).Error
	if err != nil {
		return errors.Wrapf(err, "failed to update link %s", link.ID)
	}
	return nil
}

// RecordClick adds one click to the link total and to the named region,
// creating the region on first use. Both increments run in SQL, so
// concurrent redirects never lose a click.
func (r *GormLinkRepository) RecordClick(ctx context.Context, linkID, region string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Link{}).
			Where("id = ?", linkID).
			UpdateColumn("total_clicks", gorm.Expr("total_clicks + ?", 1))
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to increment clicks for link %s", linkID)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		row := models.Region{LinkID: linkID, Name: region, Clicks: 1}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "link_id"}, {Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{"clicks": gorm.Expr("link_regions.clicks + 1")}),
		}).Create(&row).Error
		if err != nil {
			return errors.Wrapf(err, "failed to increment region %q for link %s", region, linkID)
		}
		return nil
	})
}

// DeleteOwnedLink removes link from its owner's collection, then deletes the
// link and its regions.
func (r *GormLinkRepository) DeleteOwnedLink(ctx context.Context, link *models.Link) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.First(&owner, "id = ?", link.OwnerID).Error; err != nil {
			return err
		}

		owner.LinkIDs = lo.Without(owner.LinkIDs, link.ID)
		if err := tx.Model(&owner).Select("link_ids").Updates(&owner).Error; err != nil {
			return errors.Wrapf(err, "failed to detach link from owner %s", owner.ID)
		}

		if err := tx.Where("link_id = ?", link.ID).Delete(&models.Region{}).Error; err != nil {
			return errors.Wrapf(err, "failed to delete regions of link %s", link.ID)
		}
		if err := tx.Delete(&models.Link{}, "id = ?", link.ID).Error; err != nil {
			return errors.Wrapf(err, "failed to delete link %s", link.ID)
		}
		return nil
	})
}

// ListLinksByOwner filters the store by owner_id, newest first.
func (r *GormLinkRepository) ListLinksByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	var links []models.Link
	err := r.db.WithContext(ctx).
		Preload("Regions", orderedRegions).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list links of owner %s", ownerID)
	}
	return normalizeRegions(links), nil
}

func (r *GormLinkRepository) GetAllLinks(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.WithContext(ctx).Find(&links).Error; err != nil {
		return nil, errors.Wrap(err, "failed to retrieve all links")
	}
	return links, nil
}

func normalizeRegions(links []models.Link) []models.Link {
	return lo.Map(links, func(l models.Link, _ int) models.Link {
		if l.Regions == nil {
			l.Regions = []models.Region{}
		}
		return l
	})
}
