//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v
//
// They cover the write path (HTTP → store → trigger → LISTEN) feeding a live
// view, the suggestion workflow, and the operational endpoints.

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chainpilot/internal/config"
	"chainpilot/internal/infra"
	"chainpilot/internal/middleware"
	"chainpilot/internal/model"
	"chainpilot/internal/notify"
	"chainpilot/internal/router"
	"chainpilot/internal/view"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

const e2eSecret = "test-secret-key"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body io.Reader, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func sign(t *testing.T, p model.Profile) string {
	t.Helper()
	claims := middleware.JWTClaims{
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(e2eSecret))
	require.NoError(t, err)
	return tok
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	db         *gorm.DB
	adminToken string
	storeToken string
	store      model.Store
	warehouse  model.Warehouse
	item       model.InventoryItem
	suggestion model.Suggestion
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("chainpilot_test"),
		tcPostgres.WithUsername("chainpilot"),
		tcPostgres.WithPassword("chainpilot"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		RateLimitPerMinute: 10000,
		ViewHeartbeat:      time.Hour,
		DatabaseURL:        pgURL,
		StoreTimeout:       5 * time.Second,
		RedisURL:           rdURL,
		BusDriver:          notify.DriverPostgres,
		JWTSecret:          e2eSecret,
		AutomationTimeout:  time.Second,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	bus, err := notify.New(cfg.BusDriver, cfg.DatabaseURL, rdb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	env := &testEnv{db: db}
	env.store = model.Store{Name: "Downtown", Location: "Main St", MaxCapacity: 1000}
	require.NoError(t, db.Create(&env.store).Error)
	env.warehouse = model.Warehouse{Name: "Central DC", Location: "Park 3", MaxCapacity: 10000}
	require.NoError(t, db.Create(&env.warehouse).Error)

	admin := model.Profile{ID: uuid.New(), Email: "admin@e2e.test", Role: model.RoleAdmin}
	manager := model.Profile{ID: uuid.New(), Email: "store@e2e.test", Role: model.RoleStoreManager, LinkedStoreID: &env.store.ID}
	require.NoError(t, db.Create(&[]model.Profile{admin, manager}).Error)
	env.adminToken = sign(t, admin)
	env.storeToken = sign(t, manager)

	env.item = model.InventoryItem{
		LocationID: env.store.ID, LocationType: model.LocationStore,
		SKU: "MILK-1L", ProductName: "Milk 1L", Category: "dairy",
		CurrentStock: 40, MinThreshold: 20, MaxCapacity: 100,
	}
	require.NoError(t, db.Create(&env.item).Error)

	env.suggestion = model.Suggestion{
		Message:          "Move 30 Milk 1L to Downtown",
		FromLocationID:   env.warehouse.ID,
		FromLocationType: model.LocationWarehouse,
		ToLocationID:     env.store.ID,
		ToLocationType:   model.LocationStore,
		SKU:              "MILK-1L",
		Quantity:         30,
		Status:           model.SuggestionPending,
		Priority:         model.PriorityHigh,
		SuggestedBy:      model.SuggestedByAI,
	}
	require.NoError(t, db.Create(&env.suggestion).Error)

	env.server = httptest.NewServer(router.New(cfg, db, rdb, bus, infra.NewCircuitBreaker(infra.DefaultCBConfig())))
	t.Cleanup(env.server.Close)
	return env
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("health", func(t *testing.T) {
		resp := do(t, env.server, http.MethodGet, "/health", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, "connected", body["db"])
		assert.Equal(t, "connected", body["redis"])
		assert.Equal(t, "closed", body["automation_circuit"])
	})

	t.Run("swagger ui outside production", func(t *testing.T) {
		resp := do(t, env.server, http.MethodGet, "/swagger/index.html", nil, "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown profile is forbidden", func(t *testing.T) {
		stranger := sign(t, model.Profile{ID: uuid.New(), Role: model.RoleAdmin})
		resp := do(t, env.server, http.MethodGet, "/v1/inventory", nil, stranger)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("store manager reads own inventory", func(t *testing.T) {
		resp := do(t, env.server, http.MethodGet, "/v1/inventory", nil, env.storeToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var items []model.InventoryItem
		decodeJSON(t, resp, &items)
		require.Len(t, items, 1)
		assert.Equal(t, env.item.ID, items[0].ID)
	})

	t.Run("stock change reaches the open dashboard", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/v1/views/dashboard", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+env.storeToken)
		stream, err := env.server.Client().Do(req)
		require.NoError(t, err)
		defer stream.Body.Close()
		require.Equal(t, http.StatusOK, stream.StatusCode)

		snapshots := make(chan view.DashboardSnapshot, 8)
		go func() {
			defer close(snapshots)
			sc := bufio.NewScanner(stream.Body)
			sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
			for sc.Scan() {
				line := sc.Text()
				if !strings.HasPrefix(line, "data:") {
					continue
				}
				var snap view.DashboardSnapshot
				if json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &snap) == nil && snap.Title != "" {
					snapshots <- snap
				}
			}
		}()

		first := <-snapshots
		assert.Equal(t, "My Store Overview", first.Title)
		assert.Equal(t, 40, first.Totals.TotalStock)

		resp := do(t, env.server, http.MethodPatch, "/v1/inventory/"+env.item.ID.String()+"/stock",
			jsonBody(t, map[string]int{"delta": -25}), env.storeToken)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		for snap := range snapshots {
			if snap.Totals.TotalStock == 15 {
				assert.Equal(t, 1, snap.Totals.LowStockCount)
				return
			}
		}
		t.Fatal("dashboard never showed the adjusted stock")
	})

	t.Run("approve once", func(t *testing.T) {
		path := "/v1/suggestions/" + env.suggestion.ID.String()
		resp := do(t, env.server, http.MethodPost, path+"/approve", nil, env.storeToken)
		var s model.Suggestion
		decodeJSON(t, resp, &s)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, model.SuggestionApproved, s.Status)

		resp = do(t, env.server, http.MethodPost, path+"/reject", nil, env.adminToken)
		resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("automation without webhook", func(t *testing.T) {
		resp := do(t, env.server, http.MethodPost, "/v1/admin/automation/trigger", nil, env.adminToken)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		resp := do(t, env.server, http.MethodGet, "/metrics", nil, "")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(b), "chainpilot_cache_reloads_total")
		assert.Contains(t, string(b), "chainpilot_suggestion_transitions_total")
	})
}
