package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jvibeschool/chefcard/internal/domain"
	"gorm.io/gorm"
)

// UserRepository handles user accounts and the append-only usage ledger.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *UserRepository: repository instance bound to db.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertLogin creates the user on first login or refreshes name, picture
// and last-login time on subsequent logins.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - email: account email (unique key).
//   - name: display name from the identity provider.
//   - picture: avatar URL from the identity provider.
//
// Returns:
//   - *domain.User: the stored user record.
//   - error: non-nil if the write fails.
func (r *UserRepository) UpsertLogin(ctx context.Context, email, name, picture string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	switch {
	case err == nil:
		user.Name = name
		user.Picture = picture
		user.LastLogin = time.Now()
		if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = domain.User{
			Email:     email,
			Name:      name,
			Picture:   picture,
			LastLogin: time.Now(),
		}
		if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return &user, nil
}

// RecordUsage appends one generation to the usage ledger. Ledger rows are
// never updated or deleted.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - email: requester identity.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *UserRepository) RecordUsage(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Create(&domain.UsageRecord{Email: email}).Error
}

// CountToday counts ledger entries for an identity since local midnight.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - email: requester identity.
//
// Returns:
//   - int64: number of generations recorded today.
//   - error: non-nil if the query fails.
func (r *UserRepository) CountToday(ctx context.Context, email string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.UsageRecord{}).
		Where("email = ? AND created_at >= ?", email, startOfToday()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
