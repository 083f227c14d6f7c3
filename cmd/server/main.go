package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"robot-route-service/internal/adapters/cache"
	"robot-route-service/internal/adapters/geo"
	"robot-route-service/internal/adapters/repositories"
	"robot-route-service/internal/adapters/routing"
	"robot-route-service/internal/api"
	"robot-route-service/internal/config"
	"robot-route-service/internal/platform/db"
	"robot-route-service/internal/ports"
	"robot-route-service/internal/services"
	"robot-route-service/internal/simulation"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires concrete adapters (SQL caches, ORS, Redis) behind ports and runs the
// HTTP server, the simulation clock and the position mirror until SIGINT/SIGTERM.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	conn, geocodeCache, routeCache, err := openCaches(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	var provider ports.RouteProvider
	if cfg.ORSAPIKey != "" {
		provider, err = routing.NewORSRouteProvider(cfg.ORSAPIKey, routing.ORSOptions{
			BaseURL:      cfg.ORSBaseURL,
			Profile:      cfg.ORSProfile,
			Country:      cfg.GeocodeCountry,
			RatePerSec:   cfg.ORSRatePerSec,
			GeocodeCache: geocodeCache,
			RouteCache:   routeCache,
		})
		if err != nil {
			return err
		}
	} else {
		log.Println("ORS_API_KEY not set; address routing disabled")
	}

	var lines ports.LineCatalog
	if catalog, err := repositories.LoadLineCatalog(cfg.LinesPath); err != nil {
		log.Printf("line catalog unavailable path=%s err=%v", cfg.LinesPath, err)
	} else {
		lines = catalog
		log.Printf("line catalog loaded path=%s lines=%d", cfg.LinesPath, len(catalog.Lines()))
	}

	sim := simulation.New(simulation.Config{
		StepMeters:      cfg.RouteStepMeters,
		FrameInterval:   cfg.RouteFrameInterval,
		DefaultDuration: cfg.RouteDefaultDuration,
		SecondsPerTick:  cfg.SimSecondsPerTick,
		SimTimePerTick:  cfg.SimTimePerTick,
	})

	if cfg.SeedPath != "" {
		seeds, err := repositories.LoadFleetSeed(cfg.SeedPath)
		if err != nil {
			return err
		}
		n, err := services.SeedFleet(sim, seeds)
		if err != nil {
			return err
		}
		log.Printf("fleet seeded path=%s robots=%d", cfg.SeedPath, n)
	}

	var index ports.FleetIndex
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		idx, err := geo.NewRedisFleetIndex(client, cfg.RedisGeoKey)
		if err != nil {
			return err
		}
		index = idx
	} else {
		log.Println("REDIS_ADDR not set; nearby search disabled")
	}

	deps := api.Deps{
		Sim:            sim,
		Starter:        services.NewRouteStarter(sim, provider, lines),
		Lines:          lines,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if index != nil {
		deps.Locator = index
	}

	// WriteTimeout stays zero: websocket streams are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sim.Run(gctx) })

	if index != nil {
		mirror := services.NewPositionMirror(sim, index, cfg.MirrorInterval)
		g.Go(func() error { return mirror.Run(gctx) })
	}

	g.Go(func() error {
		log.Printf("Server listening addr=:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		log.Println("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openCaches prefers Postgres when DATABASE_URL is set and falls back to a local SQLite file.
func openCaches(ctx context.Context, cfg config.Config) (*sql.DB, ports.GeocodeCache, ports.RouteCache, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repositories.InitSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, nil, err
		}
		log.Println("caches backend=postgres")
		return conn, cache.NewSQLGeocodeCache(conn), cache.NewSQLRouteCache(conn), nil
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}
	conn, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	log.Printf("caches backend=sqlite path=%s", cfg.DBPath)
	return conn, cache.NewSqliteGeocodeCache(conn), cache.NewSqliteRouteCache(conn), nil
}
