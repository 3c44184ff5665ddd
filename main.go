package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mzeile/inkroom/api"
	"github.com/mzeile/inkroom/pubsub/redis"
	"github.com/mzeile/inkroom/store/memstore"
)

const (
	defaultRoomTTLMinutes       = 60
	defaultSweepIntervalSeconds = 60
)

func main() {
	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	broker, err := redis.NewRedisBroker(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis broker: %v", err)
	}

	roomStore := memstore.NewStore()

	roomTTL := time.Duration(envInt("ROOM_TTL_MINUTES", defaultRoomTTLMinutes)) * time.Minute
	sweepInterval := time.Duration(envInt("SWEEP_INTERVAL_SECONDS", defaultSweepIntervalSeconds)) * time.Second

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	inkroomAPI := api.NewInkroomAPI(roomStore, broker, roomTTL, sweepInterval, shutdownCtx)

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	mux := http.NewServeMux()
	inkroomAPI.RegisterRoutes(mux, allowedOrigin)

	hostPort := "8080"
	if p := os.Getenv("HOST_PORT"); p != "" {
		hostPort = p
	}
	log.Printf("Starting server on host port: %s\n", hostPort)
	log.Fatal(http.ListenAndServe(":"+hostPort, mux))
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("Invalid %s=%q, using default %d", name, raw, fallback)
		return fallback
	}
	return v
}
