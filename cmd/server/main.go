package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

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

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	store := docstore.NewPG(pool)

	listener, err := docstore.NewListener(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("start change listener: %v", err)
	}
	defer listener.Close(context.Background())
	go func() {
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("change listener stopped: %v", err)
		}
	}()

	hub := ws.NewHub()
	go hub.Run()

	mgr := livequery.NewManager(store, listener.Changes())
	go mgr.Run(ctx)

	orders := service.NewLifecycleStore(mgr)
	orders.OnSnapshot(func(purpose string, snapshot []model.Order) {
		payload, err := json.Marshal(snapshot)
		if err != nil {
			log.Printf("ERROR: marshal order snapshot: %v", err)
			return
		}
		hub.BroadcastToPurpose(purpose, ws.Event{Type: "orders.snapshot", Purpose: purpose, Payload: payload})
	})
	orders.Start()
	defer orders.Stop()

	menuStore := service.NewMenuStore(mgr)
	menuStore.OnSnapshot(func(catalog []model.MenuEntry) {
		payload, err := json.Marshal(catalog)
		if err != nil {
			log.Printf("ERROR: marshal menu snapshot: %v", err)
			return
		}
		hub.BroadcastToPurpose(enum.PurposeMenu, ws.Event{Type: "menu.snapshot", Purpose: enum.PurposeMenu, Payload: payload})
	})
	menuStore.Start()
	defer menuStore.Stop()

	coordinator := service.NewCoordinator(store, orders, middleware.Identity{})

	userStore := users.NewPG(pool)

	r := router.New(cfg, userStore, orders, menuStore, coordinator, hub)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	log.Printf("Starting server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
