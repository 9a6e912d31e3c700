package server

import (
	"context"
	"fmt"
	"log"
	"metromanic/internal/broadcast"
	"metromanic/internal/config"
	"metromanic/internal/db"
	"metromanic/internal/events"
	"metromanic/internal/metrics"
	"metromanic/internal/relay"
	"metromanic/internal/rooms"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Run() error {
	appCfg := config.Load()

	bus := events.NewBus()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	srv := &Server{
		Relay: relay.New(rooms.NewStore(), bus, m, relay.Config{
			ReconnectGrace: appCfg.ReconnectGrace,
			RoomTTL:        appCfg.RoomTTL,
			SweepInterval:  appCfg.SweepInterval,
		}),
		Broadcaster: broadcast.NewBroadcaster(bus),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		WriteBuffer: appCfg.WriteBuffer,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.Relay.Run(ctx)
	defer srv.Broadcaster.Close()

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			defer database.Close()
			actions := make(chan db.ActionRecord, 1000)
			go actionBatchWriter(database, actions)
			go newRecorder(database, actions).run(bus.Subscribe(256))
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	httpServer := &http.Server{
		Addr:    "0.0.0.0:" + appCfg.Port,
		Handler: srv.Routes(appCfg.StaticDir),
	}
	errs := make(chan error, 1)
	go func() {
		fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// Routes builds the HTTP surface. staticDir is served at "/" for the browser
// client.
func (s *Server) Routes(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/rooms", s.handleRooms)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/missions/{id}", s.handleMission)
	mux.HandleFunc("GET /api/missions/{id}/players/{playerId}", s.handleMissionPlayer)
	mux.HandleFunc("GET /api/players/{id}", s.handlePlayer)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}
