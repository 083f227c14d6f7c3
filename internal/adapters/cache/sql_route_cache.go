package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"robot-route-service/internal/platform/obs"
	"robot-route-service/internal/ports"
)

// SQLRouteCache is a Postgres-backed cache of directions results.
type SQLRouteCache struct {
	DB *sql.DB
}

func NewSQLRouteCache(db *sql.DB) *SQLRouteCache {
	return &SQLRouteCache{DB: db}
}

func (s *SQLRouteCache) Get(ctx context.Context, key ports.RouteKey) (_ ports.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return ports.RouteResult{}, false, errors.New("route cache: db is nil")
	}

	profile, from, to := routeKeyParts(key)

	var (
		pathJSON string
		meters   float64
		seconds  float64
	)
	err = s.DB.QueryRowContext(ctx, `
	SELECT path_json, distance_meters, duration_seconds
    FROM route_cache
    WHERE profile = $1 AND from_key = $2 AND to_key = $3;
	`, profile, from, to).Scan(&pathJSON, &meters, &seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RouteResult{}, false, nil
	}
	if err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("get route cache: %w", err)
	}

	path, err := decodePath(pathJSON)
	if err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("get route cache: %w", err)
	}

	return ports.RouteResult{Path: path, DistanceMeters: meters, DurationSeconds: seconds}, true, nil
}

func (s *SQLRouteCache) Put(ctx context.Context, key ports.RouteKey, result ports.RouteResult) (err error) {
	defer obs.Time(ctx, "route.cache.Put")(&err)

	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	pathJSON, err := encodePath(result.Path)
	if err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}

	profile, from, to := routeKeyParts(key)
	if _, err := s.DB.ExecContext(ctx, `
	INSERT INTO route_cache (profile, from_key, to_key, path_json, distance_meters, duration_seconds)
    VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (profile, from_key, to_key) DO UPDATE
	SET path_json = EXCLUDED.path_json,
		distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds;
	`, profile, from, to, pathJSON, result.DistanceMeters, result.DurationSeconds); err != nil {
		return fmt.Errorf("insert route cache %s -> %s: %w", from, to, err)
	}

	return nil
}
