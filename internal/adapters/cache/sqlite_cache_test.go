package cache

import (
	"context"
	"robot-route-service/internal/adapters/repositories"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/platform/db"
	"robot-route-service/internal/ports"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *SqliteGeocodeCache {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, repositories.InitSchema(context.Background(), conn))
	return NewSqliteGeocodeCache(conn)
}

func TestSqliteGeocodeCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestDB(t)

	hbf := domain.Coordinates{Lat: 48.9935, Lon: 8.4017}
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{"Karlsruhe Hauptbahnhof": hbf}))

	got, err := c.GetMany(ctx, []string{"Karlsruhe Hauptbahnhof", " Karlsruhe Hauptbahnhof ", "", "Nowhere"})
	require.NoError(t, err)
	require.Equal(t, map[string]domain.Coordinates{"Karlsruhe Hauptbahnhof": hbf}, got)

	moved := domain.Coordinates{Lat: 48.99, Lon: 8.40}
	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{"Karlsruhe Hauptbahnhof": moved}))
	got, err = c.GetMany(ctx, []string{"Karlsruhe Hauptbahnhof"})
	require.NoError(t, err)
	require.Equal(t, moved, got["Karlsruhe Hauptbahnhof"])

	require.Error(t, c.PutMany(ctx, map[string]domain.Coordinates{"  ": hbf}))
}

func TestSqliteRouteCache(t *testing.T) {
	ctx := context.Background()
	routes := NewSqliteRouteCache(openTestDB(t).DB)

	key := ports.RouteKey{
		Profile: "foot-walking",
		From:    domain.Coordinates{Lat: 48.9935, Lon: 8.4017},
		To:      domain.Coordinates{Lat: 49.0094, Lon: 8.4037},
	}

	_, ok, err := routes.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	want := ports.RouteResult{
		Path:            []domain.Coordinates{key.From, {Lat: 49.0, Lon: 8.403}, key.To},
		DistanceMeters:  1834.2,
		DurationSeconds: 1320.5,
	}
	require.NoError(t, routes.Put(ctx, key, want))

	// sub-decimeter jitter maps to the same row
	jittered := key
	jittered.From.Lat += 1e-8
	got, ok, err := routes.Get(ctx, jittered)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	other := key
	other.Profile = "driving-car"
	_, ok, err = routes.Get(ctx, other)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilDBIsAnError(t *testing.T) {
	ctx := context.Background()

	_, err := (&SqliteGeocodeCache{}).GetMany(ctx, []string{"a"})
	require.Error(t, err)
	_, _, err = (&SqliteRouteCache{}).Get(ctx, ports.RouteKey{})
	require.Error(t, err)
	_, _, err = (&SQLRouteCache{}).Get(ctx, ports.RouteKey{})
	require.Error(t, err)
}
