package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/adapters/cache"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/adapters/geo"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/adapters/livetrack"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/adapters/notify"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/adapters/repositories"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/api"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/metrics"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/platform/db"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (postgres, Redis, ORS) behind ports and starts
// the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	port := getEnv("PORT", "8080")
	planTimeout := getDurationEnv("PLAN_TIMEOUT", 30*time.Second)

	pool, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	// ORS provider uses persistent caches to avoid repeated geocode/matrix calls.
	geocodeCache := cache.NewSQLGeocodeCache(pool)
	travelCache := cache.NewSQLTravelCache(pool)
	provider, err := geo.NewORSProvider(orsKey, geocodeCache, travelCache)
	if err != nil {
		log.Fatal(err)
	}

	var sink metrics.Sink = metrics.NewNoopSink()
	var gatherer prometheus.Gatherer
	if getEnv("METRICS_ENABLED", "true") == "true" {
		reg := prometheus.NewRegistry()
		sink = metrics.NewPrometheusSink(reg)
		gatherer = reg
	}

	// Live positions go to Redis when configured; a single-process deployment
	// can fall back to the in-memory store.
	var live ports.LiveLocationStore = livetrack.NewMemoryStore()
	if addr := os.Getenv("REDIS_ADDR"); strings.TrimSpace(addr) != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()
		live = livetrack.NewRedisStore(client, getDurationEnv("LIVE_LOCATION_TTL", livetrack.DefaultTTL))
	}

	var notifier ports.NotificationSink = notify.NewLogSink()
	if url := os.Getenv("NOTIFY_WEBHOOK_URL"); strings.TrimSpace(url) != "" {
		notifier = notify.NewWebhookSink(url, os.Getenv("NOTIFY_WEBHOOK_SECRET"), sink)
	}

	jobRepo := repositories.NewPostgresJobRepository(pool)
	routeRepo := repositories.NewPostgresRouteRepository(pool)

	planner := &services.Planner{
		Jobs:      jobRepo,
		Routes:    routeRepo,
		Geocoder:  provider,
		Estimator: provider,
		Metrics:   sink,
	}
	tracker := &services.Tracker{
		Jobs:     jobRepo,
		Live:     live,
		Notifier: notifier,
		Metrics:  sink,
	}

	router := api.NewRouter(planner, tracker, routeRepo, jobRepo, planTimeout, gatherer)

	// Timeouts are tuned for cold-cache route planning (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s: invalid duration %q: %v", key, v, err)
	}
	return d
}
