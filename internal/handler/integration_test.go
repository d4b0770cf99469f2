//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guadalajara-pos/api/internal/codec"
	"github.com/guadalajara-pos/api/internal/config"
	"github.com/guadalajara-pos/api/internal/docstore"
	"github.com/guadalajara-pos/api/internal/enum"
	"github.com/guadalajara-pos/api/internal/livequery"
	"github.com/guadalajara-pos/api/internal/middleware"
	"github.com/guadalajara-pos/api/internal/model"
	"github.com/guadalajara-pos/api/internal/router"
	"github.com/guadalajara-pos/api/internal/service"
	"github.com/guadalajara-pos/api/internal/users"
	"github.com/guadalajara-pos/api/internal/ws"
)

// TestIntegrationFlow exercises the full order lifecycle against a real
// PostgreSQL database: register, seed the catalog, submit, watch the
// order surface through the live snapshot pipeline, edit it, complete
// it, and watch it move between partitions.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	_, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}

	store := docstore.NewPG(pool)

	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()

	listener, err := docstore.NewListener(listenCtx, connStr)
	if err != nil {
		t.Fatalf("start change listener: %v", err)
	}
	defer listener.Close(context.Background())
	go listener.Run(listenCtx)

	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown mechanism.
	// Acceptable for tests; production should add context-based shutdown.
	go hub.Run()

	mgr := livequery.NewManager(store, listener.Changes())
	go mgr.Run(listenCtx)

	orders := service.NewLifecycleStore(mgr)
	orders.Start()
	defer orders.Stop()

	menuStore := service.NewMenuStore(mgr)
	menuStore.Start()
	defer menuStore.Stop()

	coordinator := service.NewCoordinator(store, orders, middleware.Identity{})
	userStore := users.NewPG(pool)

	r := router.New(cfg, userStore, orders, menuStore, coordinator, hub)
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Register a staff account through the API ---
	token := register(t, server, "staff@test.com", "password123")

	// --- 2. Seed a catalog entry directly (same write path the seeder uses) ---
	seedMenuEntry(t, ctx, store, "Arepa", 2500)

	// --- 3. Catalog shows up via the live snapshot pipeline ---
	waitFor(t, "menu entry visible", func() bool {
		resp := httpGetJSON(t, server, "/menu/", token)
		items, _ := resp["items"].([]interface{})
		for _, it := range items {
			if it.(map[string]interface{})["name"] == "Arepa" {
				return true
			}
		}
		return false
	})

	// --- 4. Submit an order ---
	submitResp := httpPostJSON(t, server, "/orders/", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"name": "Arepa", "quantity": 2, "unit_price": 2500},
		},
		"order_type":  "DINE_IN",
		"client_name": "Daniel",
	}, token)
	orderID, _ := submitResp["id"].(string)
	if orderID == "" {
		t.Fatalf("submit: no id in response: %+v", submitResp)
	}

	// --- 5. Order appears pending only once the snapshot confirms it ---
	waitFor(t, "order pending", func() bool {
		return orderListed(t, server, "/orders/pending", orderID, token)
	})

	got := httpGetJSON(t, server, "/orders/"+orderID, token)
	if got["total_price"] != "5000.00" {
		t.Fatalf("order total_price: got %v, want 5000.00", got["total_price"])
	}
	if got["status"] != enum.OrderStatusPending {
		t.Fatalf("order status: got %v, want pending", got["status"])
	}

	// --- 6. Edit the pending order; the new total arrives by snapshot ---
	httpPatchJSON(t, server, "/orders/"+orderID, map[string]interface{}{
		"lines": []map[string]interface{}{
			{"name": "Arepa", "quantity": 3, "unit_price": 2500},
		},
		"client_name": "Daniel",
	}, token)

	waitFor(t, "updated total visible", func() bool {
		resp := httpGetJSON(t, server, "/orders/"+orderID, token)
		return resp["total_price"] == "7500.00"
	})

	// --- 7. Complete the order; it moves between partitions ---
	httpPostJSON(t, server, "/orders/"+orderID+"/complete", nil, token)

	waitFor(t, "order completed", func() bool {
		return orderListed(t, server, "/orders/completed", orderID, token)
	})
	if orderListed(t, server, "/orders/pending", orderID, token) {
		t.Fatal("completed order still listed as pending")
	}

	// --- 8. A completed order rejects further edits ---
	rr := rawPatchJSON(t, server, "/orders/"+orderID, map[string]interface{}{
		"lines": []map[string]interface{}{
			{"name": "Arepa", "quantity": 1, "unit_price": 2500},
		},
	}, token)
	if rr != http.StatusConflict {
		t.Fatalf("edit after completion: got status %d, want 409", rr)
	}
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory (internal/handler/).
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../db/migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func register(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/register", map[string]interface{}{
		"email":    email,
		"password": password,
		"name":     "Test Staff",
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("register failed: no access_token in response: %+v", resp)
	}
	return token
}

func seedMenuEntry(t *testing.T, ctx context.Context, store *docstore.PG, name string, price int64) {
	t.Helper()
	data, err := codec.EncodeMenuEntry(model.MenuEntry{Name: name, UnitPrice: decimal.NewFromInt(price)})
	if err != nil {
		t.Fatalf("encode menu entry: %v", err)
	}
	if _, err := store.AddDocument(ctx, enum.CollectionMenu, data); err != nil {
		t.Fatalf("seed menu entry: %v", err)
	}
}

// waitFor polls until cond holds; the snapshot pipeline is asynchronous,
// so reads become true only after a delivery lands.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func orderListed(t *testing.T, server *httptest.Server, path, orderID, token string) bool {
	t.Helper()
	resp := httpGetJSON(t, server, path, token)
	list, _ := resp["orders"].([]interface{})
	for _, o := range list {
		if o.(map[string]interface{})["id"] == orderID {
			return true
		}
	}
	return false
}

// --- HTTP helpers ---

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	return httpJSON(t, server, "POST", path, body, token)
}

func httpPatchJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	return httpJSON(t, server, "PATCH", path, body, token)
}

func httpJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	resp, status := doJSON(t, server, method, path, body, token)
	if status < 200 || status >= 300 {
		t.Fatalf("%s %s: status %d, body: %v", method, path, status, resp)
	}
	return resp
}

func rawPatchJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) int {
	t.Helper()
	_, status := doJSON(t, server, "PATCH", path, body, token)
	return status
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) (map[string]interface{}, int) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode
}

func httpGetJSON(t *testing.T, server *httptest.Server, path string, token string) map[string]interface{} {
	t.Helper()
	req, err := http.NewRequest("GET", server.URL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("GET %s: status %d, body: %v", path, resp.StatusCode, errResp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}
