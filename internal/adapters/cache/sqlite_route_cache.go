package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"robot-route-service/internal/ports"
)

// SQLite backed cache of directions results keyed by profile and rounded endpoints.
type SqliteRouteCache struct {
	DB *sql.DB
}

func NewSqliteRouteCache(db *sql.DB) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db}
}

func (s *SqliteRouteCache) Get(ctx context.Context, key ports.RouteKey) (ports.RouteResult, bool, error) {
	if s.DB == nil {
		return ports.RouteResult{}, false, errors.New("route cache: db is nil")
	}

	profile, from, to := routeKeyParts(key)

	var (
		pathJSON string
		meters   float64
		seconds  float64
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT 
        path_json,
        distance_meters,
        duration_seconds
    FROM route_cache
    WHERE profile = ? 
        AND from_key = ? 
        AND to_key = ?;
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

func (s *SqliteRouteCache) Put(ctx context.Context, key ports.RouteKey, result ports.RouteResult) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	pathJSON, err := encodePath(result.Path)
	if err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}

	profile, from, to := routeKeyParts(key)
	if _, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_cache (
        profile,
        from_key,
        to_key,
        path_json,
        distance_meters,
        duration_seconds
    )
    VALUES (?, ?, ?, ?, ?, ?);
	`, profile, from, to, pathJSON, result.DistanceMeters, result.DurationSeconds); err != nil {
		return fmt.Errorf("insert route cache %s -> %s: %w", from, to, err)
	}

	return nil
}
