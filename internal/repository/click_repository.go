package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/axellelanca/shortlinks/internal/models"
)

// ClickRepository stores the raw click log.
type ClickRepository interface {
	CreateClick(ctx context.Context, click *models.Click) error
	CountClicksByLinkID(ctx context.Context, linkID string) (int64, error)
	ListRecentClicks(ctx context.Context, linkID string, limit int) ([]models.Click, error)
}

// GormClickRepository implements ClickRepository with GORM.
type GormClickRepository struct {
	db *gorm.DB
}

func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

func (r *GormClickRepository) CreateClick(ctx context.Context, click *models.Click) error {
	if err := r.db.WithContext(ctx).Create(click).Error; err != nil {
		return errors.Wrap(err, "failed to create click")
	}
	return nil
}

func (r *GormClickRepository) CountClicksByLinkID(ctx context.Context, linkID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Click{}).Where("link_id = ?", linkID).Count(&count).Error; err != nil {
		return 0, errors.Wrapf(err, "failed to count clicks for link %s", linkID)
	}
	return count, nil
}

// ListRecentClicks returns the latest logged clicks of a link, newest first.
func (r *GormClickRepository) ListRecentClicks(ctx context.Context, linkID string, limit int) ([]models.Click, error) {
	var clicks []models.Click
	err := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&clicks).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list clicks for link %s", linkID)
	}
	return clicks, nil
}
