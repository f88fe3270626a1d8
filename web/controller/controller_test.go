package controller

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dispatchhub/dispatch/config"
	"github.com/dispatchhub/dispatch/database"
	"github.com/dispatchhub/dispatch/util/clock"
	"github.com/dispatchhub/dispatch/web/cache"
	"github.com/dispatchhub/dispatch/web/entity"
	"github.com/dispatchhub/dispatch/web/locale"
	"github.com/dispatchhub/dispatch/web/service"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := config.GetDefaultDatabaseConfig()
	cfg.Type = config.DatabaseTypeSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "dispatch.db")
	clk := clock.Fixed(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	conn, err := database.Open(cfg, clk)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(locale.LocalizerMiddleware())
	NewAPIController(&engine.RouterGroup, Services{
		Users:   service.NewUserService(conn, cache.NewMemory(time.Minute), clk),
		Drivers: service.NewDriverService(conn, clk),
	}, nil)
	return engine
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestUserEndpoints(t *testing.T) {
	h := newTestEngine(t)

	code, env := do(t, h, http.MethodPost, "/api/users", `{"telegram_id": 123456, "role": "dispatcher", "phone": "+71234567890"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
	assert.True(t, env.Success)
	var user entity.UserResponse
	require.NoError(t, json.Unmarshal(env.Obj, &user))
	assert.Equal(t, int64(123456), user.TelegramID)
	assert.Equal(t, "", user.Name)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(env.Obj, &fields))
	assert.Len(t, fields, 5)

	code, env = do(t, h, http.MethodPost, "/api/users", `{"telegram_id": 123456, "role": "manager", "phone": "+79998887766"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Msg, "telegram_id")

	code, env = do(t, h, http.MethodGet, "/api/users/telegram/123456", "")
	require.Equal(t, http.StatusOK, code)
	var byTg entity.UserResponse
	require.NoError(t, json.Unmarshal(env.Obj, &byTg))
	assert.Equal(t, user, byTg)

	path := "/api/users/" + strconv.Itoa(user.Id)
	code, env = do(t, h, http.MethodPatch, path, `{"role": "manager"}`)
	require.Equal(t, http.StatusOK, code)
	var updated entity.UserResponse
	require.NoError(t, json.Unmarshal(env.Obj, &updated))
	assert.Equal(t, "manager", updated.Role)

	code, _ = do(t, h, http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, code)
	code, env = do(t, h, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	code, _ = do(t, h, http.MethodGet, "/api/users/telegram/123456", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUserValidationResponses(t *testing.T) {
	h := newTestEngine(t)

	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		lang      string
		wantCode  int
		wantField string
		wantKind  entity.Kind
		wantMsg   string
	}{
		{name: "bad phone", method: http.MethodPost, path: "/api/users", body: `{"telegram_id": 1, "role": "viewer", "phone": "12345"}`,
			wantCode: http.StatusUnprocessableEntity, wantField: "phone", wantKind: entity.KindFormat, wantMsg: "phone: must be +7 followed by 10 digits"},
		{name: "missing role", method: http.MethodPost, path: "/api/users", body: `{"telegram_id": 1, "phone": "+71234567890"}`,
			wantCode: http.StatusUnprocessableEntity, wantField: "role", wantKind: entity.KindShape},
		{name: "wrong type", method: http.MethodPost, path: "/api/users", body: `{"telegram_id": "x", "role": "viewer", "phone": "+71234567890"}`,
			wantCode: http.StatusUnprocessableEntity, wantField: "telegram_id", wantKind: entity.KindShape, wantMsg: "telegram_id: wrong type, expected int64"},
		{name: "fractional id", method: http.MethodPost, path: "/api/users", body: `{"telegram_id": 1.5, "role": "viewer", "phone": "+71234567890"}`,
			wantCode: http.StatusUnprocessableEntity, wantField: "telegram_id", wantKind: entity.KindShape},
		{name: "malformed body", method: http.MethodPost, path: "/api/users", body: `{`,
			wantCode: http.StatusUnprocessableEntity, wantField: "body", wantKind: entity.KindShape},
		{name: "empty update", method: http.MethodPatch, path: "/api/users/1", body: `{}`,
			wantCode: http.StatusUnprocessableEntity, wantKind: entity.KindEmptyUpdate, wantMsg: "at least one field must be specified for update"},
		{name: "empty update in russian", method: http.MethodPatch, path: "/api/users/1", body: `{"name": ""}`, lang: "ru-RU",
			wantCode: http.StatusUnprocessableEntity, wantKind: entity.KindEmptyUpdate, wantMsg: "Хотя бы одно поле должно быть указано для обновления"},
		{name: "phone in russian", method: http.MethodPost, path: "/api/users", body: `{"telegram_id": 1, "role": "viewer", "phone": "1"}`, lang: "ru-RU",
			wantCode: http.StatusUnprocessableEntity, wantField: "phone", wantKind: entity.KindFormat, wantMsg: "phone: номер должен быть в формате +7 и 10 цифр"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header []string
			if tt.lang != "" {
				header = []string{"Accept-Language", tt.lang}
			}
			code, env := do(t, h, tt.method, tt.path, tt.body, header...)
			assert.Equal(t, tt.wantCode, code)
			assert.False(t, env.Success)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, env.Msg)
			}

			var fields []entity.FieldError
			require.NoError(t, json.Unmarshal(env.Obj, &fields))
			require.NotEmpty(t, fields)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, fields[0].Field)
			}
			assert.Equal(t, tt.wantKind, fields[0].Kind)
		})
	}
}

func TestUserNotFound(t *testing.T) {
	h := newTestEngine(t)
	for _, path := range []string{"/api/users/42", "/api/users/abc", "/api/users/telegram/abc"} {
		code, env := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, code, path)
		assert.Equal(t, "record not found", env.Msg)
	}
	code, _ := do(t, h, http.MethodPatch, "/api/users/42", `{"role": "viewer"}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, h, http.MethodDelete, "/api/users/42", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDriverEndpoints(t *testing.T) {
	h := newTestEngine(t)

	code, env := do(t, h, http.MethodPost, "/api/drivers", `{"name": "Ivan", "phone": "+79001234567"}`)
	require.Equal(t, http.StatusOK, code, env.Msg)
	var d1 entity.DriverResponse
	require.NoError(t, json.Unmarshal(env.Obj, &d1))
	assert.True(t, d1.IsActive)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), d1.CreatedAt)

	code, env = do(t, h, http.MethodPost, "/api/drivers", `{"name": "Oleg", "phone": "+79007654321", "is_active": false}`)
	require.Equal(t, http.StatusOK, code)
	var d2 entity.DriverResponse
	require.NoError(t, json.Unmarshal(env.Obj, &d2))
	assert.False(t, d2.IsActive)

	code, env = do(t, h, http.MethodGet, "/api/drivers?active=true", "")
	require.Equal(t, http.StatusOK, code)
	var active []entity.DriverResponse
	require.NoError(t, json.Unmarshal(env.Obj, &active))
	require.Len(t, active, 1)
	assert.Equal(t, d1.Id, active[0].Id)

	code, env = do(t, h, http.MethodPost, "/api/drivers/"+strconv.Itoa(d2.Id)+"/activate", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Obj, &d2))
	assert.True(t, d2.IsActive)

	code, env = do(t, h, http.MethodPost, "/api/drivers/"+strconv.Itoa(d1.Id)+"/deactivate", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Obj, &d1))
	assert.False(t, d1.IsActive)

	code, env = do(t, h, http.MethodPatch, "/api/drivers/"+strconv.Itoa(d1.Id), `{"name": "Ivan I."}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Obj, &d1))
	assert.Equal(t, "Ivan I.", d1.Name)

	code, _ = do(t, h, http.MethodPatch, "/api/drivers/"+strconv.Itoa(d1.Id), `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = do(t, h, http.MethodPost, "/api/drivers", `{"phone": "+79001234567"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = do(t, h, http.MethodDelete, "/api/drivers/"+strconv.Itoa(d1.Id), "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, http.MethodGet, "/api/drivers/"+strconv.Itoa(d1.Id), "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, h, http.MethodPost, "/api/drivers/"+strconv.Itoa(d1.Id)+"/activate", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServerEndpoints(t *testing.T) {
	h := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": true}`, w.Body.String())

	code, env := do(t, h, http.MethodGet, "/api/server/status", "")
	require.Equal(t, http.StatusOK, code)
	var st map[string]any
	require.NoError(t, json.Unmarshal(env.Obj, &st))
	assert.Contains(t, st, "uptime")
	assert.Contains(t, st, "mem")

	code, _ = do(t, h, http.MethodGet, "/api/server/logs/10", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, http.MethodGet, "/api/server/logs/zero", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
