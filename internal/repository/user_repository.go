package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/axellelanca/shortlinks/internal/models"
)

// UserRepository is the user directory. Lookups return gorm.ErrRecordNotFound
// for unknown users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateAvatar(ctx context.Context, id, avatar string) error
	DeleteUserWithLinks(ctx context.Context, id string) (int64, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

func (r *GormUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser persists the profile fields. The link collection and password
// hash are not touched.
func (r *GormUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Select("username", "email", "company_name", "company_professional_email", "updated_at").
		Updates(user).Error
	if err != nil {
		return errors.Wrapf(err, "failed to update user %s", user.ID)
	}
	return nil
}

func (r *GormUserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": time.Now()})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update password of user %s", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormUserRepository) UpdateAvatar(ctx context.Context, id, avatar string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"avatar": avatar, "updated_at": time.Now()})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update avatar of user %s", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUserWithLinks deletes a user together with every link it owns and
// their regions. It returns the number of links removed.
func (r *GormUserRepository) DeleteUserWithLinks(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&models.Link{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Where("link_id IN (?)", owned).Delete(&models.Region{}).Error; err != nil {
			return errors.Wrapf(err, "failed to delete regions of user %s", id)
		}

		res := tx.Where("owner_id = ?", id).Delete(&models.Link{})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to delete links of user %s", id)
		}
		removed = res.RowsAffected

		res = tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to delete user %s", id)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return removed, err
}
