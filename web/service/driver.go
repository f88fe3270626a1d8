package service

import (
	"context"
	"fmt"

	"github.com/dispatchhub/dispatch/database"
	"github.com/dispatchhub/dispatch/database/model"
	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/util/clock"
	"github.com/dispatchhub/dispatch/web/entity"

	"gorm.io/gorm"
)

type DriverService struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewDriverService(db *gorm.DB, clk clock.Clock) *DriverService {
	if clk == nil {
		clk = clock.System
	}
	return &DriverService{db: db, clock: clk}
}

func (s *DriverService) Create(ctx context.Context, in *entity.DriverCreate) (entity.DriverResponse, error) {
	if err := in.Validate(); err != nil {
		return entity.DriverResponse{}, err
	}
	rec := in.NewRecord(s.clock)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return entity.DriverResponse{}, fmt.Errorf("create driver: %w", err)
	}
	logger.Infof("driver %d created", rec.Id)
	return entity.NewDriverResponse(rec), nil
}

func (s *DriverService) Get(ctx context.Context, id int) (entity.DriverResponse, error) {
	rec, err := s.find(s.db.WithContext(ctx), id)
	if err != nil {
		return entity.DriverResponse{}, err
	}
	return entity.NewDriverResponse(rec), nil
}

// List returns drivers by id. With activeOnly set, inactive drivers are skipped.
func (s *DriverService) List(ctx context.Context, activeOnly bool) ([]entity.DriverResponse, error) {
	q := s.db.WithContext(ctx).Model(&model.Driver{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var drivers []model.Driver
	if err := q.Order("id ASC").Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return entity.NewDriverResponses(drivers), nil
}

func (s *DriverService) Update(ctx context.Context, id int, in *entity.DriverUpdate) (entity.DriverResponse, error) {
	if err := in.Validate(); err != nil {
		return entity.DriverResponse{}, err
	}
	var rec *model.Driver
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = s.find(tx, id); err != nil {
			return err
		}
		if err := tx.Model(rec).Updates(in.Changes()).Error; err != nil {
			return fmt.Errorf("update driver %d: %w", id, err)
		}
		in.Apply(rec)
		return nil
	})
	if err != nil {
		return entity.DriverResponse{}, err
	}
	return entity.NewDriverResponse(rec), nil
}

// SetActive toggles availability without touching other columns.
func (s *DriverService) SetActive(ctx context.Context, id int, active bool) (entity.DriverResponse, error) {
	return s.Update(ctx, id, &entity.DriverUpdate{IsActive: &active})
}

func (s *DriverService) Delete(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&model.Driver{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete driver %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("driver %d: %w", id, ErrNotFound)
	}
	logger.Infof("driver %d deleted", id)
	return nil
}

func (s *DriverService) find(tx *gorm.DB, id int) (*model.Driver, error) {
	rec := &model.Driver{}
	err := tx.First(rec, id).Error
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("driver %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
