package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/prepwise/prepwise/internal/models"
	"github.com/prepwise/prepwise/internal/utils"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	// EnsureUser returns the user row, creating an empty one on first contact
	// so streak updates always have a target.
	EnsureUser(ctx context.Context, id string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SaveLastInterviewConfig(ctx context.Context, id string, cfg datatypes.JSON) error
	UpdateStreak(ctx context.Context, id string, current, longest int, lastAt time.Time) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) EnsureUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		FirstOrCreate(&u, models.User{ID: id}).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) SaveLastInterviewConfig(ctx context.Context, id string, cfg datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_interview_config", cfg).Error
}

func (r *userRepo) UpdateStreak(ctx context.Context, id string, current, longest int, lastAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"streak_current":    current,
			"streak_longest":    longest,
			"last_interview_at": lastAt.UTC(),
		}).Error
}
