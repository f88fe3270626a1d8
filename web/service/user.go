package service

import (
	"context"
	"fmt"

	"github.com/dispatchhub/dispatch/database"
	"github.com/dispatchhub/dispatch/database/model"
	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/util/clock"
	"github.com/dispatchhub/dispatch/web/cache"
	"github.com/dispatchhub/dispatch/web/entity"

	"gorm.io/gorm"
)

// UserService registers and maintains users. Inputs are validated here,
// so handlers pass decoded schemas straight through.
type UserService struct {
	db    *gorm.DB
	cache cache.Store
	clock clock.Clock
}

func NewUserService(db *gorm.DB, store cache.Store, clk clock.Clock) *UserService {
	if clk == nil {
		clk = clock.System
	}
	return &UserService{db: db, cache: store, clock: clk}
}

func (s *UserService) Create(ctx context.Context, in *entity.UserCreate) (entity.UserResponse, error) {
	if err := in.Validate(); err != nil {
		return entity.UserResponse{}, err
	}
	rec := in.NewRecord(s.clock)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if database.IsConflict(err) {
			return entity.UserResponse{}, &ConflictError{Field: "telegram_id", Value: rec.TelegramID}
		}
		return entity.UserResponse{}, fmt.Errorf("create user: %w", err)
	}
	logger.Infof("user %d created with role %s", rec.Id, rec.Role)
	return entity.NewUserResponse(rec), nil
}

func (s *UserService) Get(ctx context.Context, id int) (entity.UserResponse, error) {
	rec, err := s.find(s.db.WithContext(ctx), "id = ?", id)
	if err != nil {
		return entity.UserResponse{}, err
	}
	return entity.NewUserResponse(rec), nil
}

// GetByTelegramID serves repeated lookups from the cache.
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (entity.UserResponse, error) {
	load := func() (entity.UserResponse, error) {
		rec, err := s.find(s.db.WithContext(ctx), "telegram_id = ?", telegramID)
		if err != nil {
			return entity.UserResponse{}, err
		}
		return entity.NewUserResponse(rec), nil
	}
	if s.cache == nil {
		return load()
	}
	return cache.GetOrSet(ctx, s.cache, cache.KeyUserTelegram(telegramID), cache.TTLUser, load)
}

func (s *UserService) List(ctx context.Context) ([]entity.UserResponse, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return entity.NewUserResponses(users), nil
}

// Update writes the effective fields of in. id and created_at never change.
func (s *UserService) Update(ctx context.Context, id int, in *entity.UserUpdate) (entity.UserResponse, error) {
	if err := in.Validate(); err != nil {
		return entity.UserResponse{}, err
	}
	var rec *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = s.find(tx, "id = ?", id); err != nil {
			return err
		}
		if err := tx.Model(rec).Updates(in.Changes()).Error; err != nil {
			return fmt.Errorf("update user %d: %w", id, err)
		}
		in.Apply(rec)
		return nil
	})
	if err != nil {
		return entity.UserResponse{}, err
	}
	s.invalidate(ctx, rec.TelegramID)
	return entity.NewUserResponse(rec), nil
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	var rec *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = s.find(tx, "id = ?", id); err != nil {
			return err
		}
		return tx.Delete(rec).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, rec.TelegramID)
	logger.Infof("user %d deleted", id)
	return nil
}

func (s *UserService) find(tx *gorm.DB, query string, arg any) (*model.User, error) {
	rec := &model.User{}
	err := tx.Where(query, arg).First(rec).Error
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("user %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *UserService) invalidate(ctx context.Context, telegramID int64) {
	if s.cache != nil {
		cache.Invalidate(ctx, s.cache, cache.KeyUserTelegram(telegramID))
	}
}
