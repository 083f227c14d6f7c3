package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/platform/obs"
	"sort"
	"strings"
)

// SQLGeocodeCache is a Postgres-backed cache mapping addresses to coordinates.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// GetMany looks up every distinct non-blank address in one round trip.
func (s *SQLGeocodeCache) GetMany(ctx context.Context, addresses []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueTrimmed(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT address, lat, lon FROM geocode_cache WHERE address = ANY($1::text[])`, uniq)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var (
			addr string
			c    domain.Coordinates
		)
		if err := rows.Scan(&addr, &c.Lat, &c.Lon); err != nil {
			return nil, fmt.Errorf("get geocode cache: %w", err)
		}
		out[addr] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}
	return out, nil
}

// PutMany upserts all results with a single unnest statement.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	addrs, lats, lons, err := geocodeColumns(results)
	if err != nil || len(addrs) == 0 {
		return err
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lon)
	SELECT * FROM unnest($1::text[], $2::double precision[], $3::double precision[])
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`, addrs, lats, lons); err != nil {
		return fmt.Errorf("insert geocode cache (%d rows): %w", len(addrs), err)
	}
	return nil
}

// geocodeColumns splits results into parallel column slices ordered by address.
// A blank address key is rejected before anything is written.
func geocodeColumns(results map[string]domain.Coordinates) (addrs []string, lats, lons []float64, err error) {
	addrs = make([]string, 0, len(results))
	for addr := range results {
		if strings.TrimSpace(addr) == "" {
			return nil, nil, nil, errors.New("insert geocode cache: empty address key")
		}
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	lats = make([]float64, len(addrs))
	lons = make([]float64, len(addrs))
	for i, addr := range addrs {
		lats[i], lons[i] = results[addr].Lat, results[addr].Lon
	}
	return addrs, lats, lons, nil
}
