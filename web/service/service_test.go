package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dispatchhub/dispatch/config"
	"github.com/dispatchhub/dispatch/database"
	"github.com/dispatchhub/dispatch/database/model"
	"github.com/dispatchhub/dispatch/util/clock"
	"github.com/dispatchhub/dispatch/web/cache"
	"github.com/dispatchhub/dispatch/web/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var created = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.GetDefaultDatabaseConfig()
	cfg.Type = config.DatabaseTypeSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "dispatch.db")
	conn, err := database.Open(cfg, clock.Fixed(created))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func strPtr(s string) *string { return &s }

func newUser(telegramID int64, role, phone string) *entity.UserCreate {
	return &entity.UserCreate{TelegramID: &telegramID, Role: &role, Phone: &phone}
}

func TestUserServiceCreate(t *testing.T) {
	svc := NewUserService(openDB(t), cache.NewMemory(time.Minute), clock.Fixed(created))
	ctx := context.Background()

	out, err := svc.Create(ctx, newUser(123456, "dispatcher", "+71234567890"))
	require.NoError(t, err)
	assert.NotZero(t, out.Id)
	assert.Equal(t, "", out.Name)
	assert.Equal(t, "dispatcher", out.Role)

	var rec model.User
	require.NoError(t, svc.db.First(&rec, out.Id).Error)
	assert.True(t, rec.CreatedAt.Equal(created))
}

func TestUserServiceCreateDuplicateTelegramID(t *testing.T) {
	svc := NewUserService(openDB(t), nil, clock.Fixed(created))
	ctx := context.Background()

	_, err := svc.Create(ctx, newUser(555, "viewer", "+71234567890"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, newUser(555, "manager", "+79998887766"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, entity.ErrValidation)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "telegram_id", conflict.Field)
	assert.Equal(t, int64(555), conflict.Value)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserServiceCreateConcurrentDuplicates(t *testing.T) {
	conn := openDB(t)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	svc := NewUserService(conn, nil, clock.System)
	ctx := context.Background()

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, newUser(777, "viewer", "+71234567890"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, ok)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserServiceRejectsInvalidInput(t *testing.T) {
	svc := NewUserService(openDB(t), nil, clock.System)
	ctx := context.Background()

	_, err := svc.Create(ctx, newUser(1, "viewer", "12345"))
	assert.ErrorIs(t, err, entity.ErrFormat)

	_, err = svc.Update(ctx, 1, &entity.UserUpdate{Name: strPtr("")})
	assert.ErrorIs(t, err, entity.ErrEmptyUpdate)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserServiceUpdate(t *testing.T) {
	conn := openDB(t)
	svc := NewUserService(conn, nil, clock.Fixed(created))
	ctx := context.Background()

	u, err := svc.Create(ctx, newUser(42, "viewer", "+71234567890"))
	require.NoError(t, err)

	out, err := svc.Update(ctx, u.Id, &entity.UserUpdate{Name: strPtr(""), Role: strPtr("manager")})
	require.NoError(t, err)
	assert.Equal(t, "manager", out.Role)
	assert.Equal(t, "", out.Name)
	assert.Equal(t, u.Id, out.Id)
	assert.Equal(t, "+71234567890", out.Phone)

	var rec model.User
	require.NoError(t, conn.First(&rec, u.Id).Error)
	assert.Equal(t, model.RoleManager, rec.Role)
	assert.True(t, rec.CreatedAt.Equal(created))

	_, err = svc.Update(ctx, 9999, &entity.UserUpdate{Role: strPtr("viewer")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserServiceTelegramLookupCache(t *testing.T) {
	store := cache.NewMemory(time.Minute)
	svc := NewUserService(openDB(t), store, clock.System)
	ctx := context.Background()

	_, err := svc.GetByTelegramID(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, cache.KeyUserTelegram(100))
	assert.ErrorIs(t, err, cache.ErrMiss)

	u, err := svc.Create(ctx, newUser(100, "viewer", "+71234567890"))
	require.NoError(t, err)

	got, err := svc.GetByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	_, err = store.Get(ctx, cache.KeyUserTelegram(100))
	require.NoError(t, err)

	_, err = svc.Update(ctx, u.Id, &entity.UserUpdate{Name: strPtr("Renamed")})
	require.NoError(t, err)
	_, err = store.Get(ctx, cache.KeyUserTelegram(100))
	assert.ErrorIs(t, err, cache.ErrMiss)

	got, err = svc.GetByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, svc.Delete(ctx, u.Id))
	_, err = svc.GetByTelegramID(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserServiceGetAndDelete(t *testing.T) {
	svc := NewUserService(openDB(t), nil, clock.System)
	ctx := context.Background()

	_, err := svc.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 1), ErrNotFound)

	u, err := svc.Create(ctx, newUser(5, "manager", "+70000000000"))
	require.NoError(t, err)
	got, err := svc.Get(ctx, u.Id)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	require.NoError(t, svc.Delete(ctx, u.Id))
	_, err = svc.Get(ctx, u.Id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDriverService(t *testing.T) {
	conn := openDB(t)
	svc := NewDriverService(conn, clock.Fixed(created))
	ctx := context.Background()

	off := false
	d1, err := svc.Create(ctx, &entity.DriverCreate{Name: "Ivan", Phone: "+79001234567"})
	require.NoError(t, err)
	assert.True(t, d1.IsActive)
	assert.True(t, d1.CreatedAt.Equal(created))

	d2, err := svc.Create(ctx, &entity.DriverCreate{Name: "Oleg", Phone: "+79007654321", IsActive: &off})
	require.NoError(t, err)
	assert.False(t, d2.IsActive)

	var stored model.Driver
	require.NoError(t, conn.First(&stored, d2.Id).Error)
	assert.False(t, stored.IsActive)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, d1.Id, active[0].Id)

	d1, err = svc.SetActive(ctx, d1.Id, false)
	require.NoError(t, err)
	assert.False(t, d1.IsActive)
	active, err = svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	d2, err = svc.Update(ctx, d2.Id, &entity.DriverUpdate{Name: strPtr("Oleg P."), Phone: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Oleg P.", d2.Name)
	assert.Equal(t, "+79007654321", d2.Phone)
	assert.True(t, d2.CreatedAt.Equal(created))

	_, err = svc.Update(ctx, d2.Id, &entity.DriverUpdate{})
	assert.ErrorIs(t, err, entity.ErrEmptyUpdate)

	_, err = svc.Create(ctx, &entity.DriverCreate{Phone: "+79001234567"})
	assert.ErrorIs(t, err, entity.ErrShape)

	require.NoError(t, svc.Delete(ctx, d2.Id))
	_, err = svc.Get(ctx, d2.Id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, d2.Id), ErrNotFound)
	_, err = svc.SetActive(ctx, d2.Id, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConflictError(t *testing.T) {
	err := &ConflictError{Field: "telegram_id", Value: int64(9)}
	assert.Equal(t, "telegram_id 9 already exists", err.Error())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestServerStatus(t *testing.T) {
	s := NewServerService()
	st := s.GetStatus()
	require.NotNil(t, st)
	assert.Equal(t, config.GetVersion(), st.Version)
	assert.NotZero(t, st.AppStats.Mem)
}
