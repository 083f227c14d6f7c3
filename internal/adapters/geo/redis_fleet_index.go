package geo

import (
	"context"
	"errors"
	"fmt"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/platform/obs"
	"robot-route-service/internal/ports"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisFleetIndex stores robot positions in a Redis GEO set.
// Members are robot ids; each publish replaces the whole set atomically.
type RedisFleetIndex struct {
	client *redis.Client
	key    string
}

func NewRedisFleetIndex(client *redis.Client, key string) (*RedisFleetIndex, error) {
	if client == nil {
		return nil, errors.New("redis fleet index: client is nil")
	}
	if key == "" {
		key = "robots:positions"
	}
	return &RedisFleetIndex{client: client, key: key}, nil
}

func (r *RedisFleetIndex) PublishPositions(ctx context.Context, positions map[int]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "redis.PublishPositions")(&err)

	ids := make([]int, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	locs := make([]*redis.GeoLocation, 0, len(ids))
	for _, id := range ids {
		c := positions[id]
		if !c.Valid() {
			continue
		}
		locs = append(locs, &redis.GeoLocation{
			Name:      strconv.Itoa(id),
			Longitude: c.Lon,
			Latitude:  c.Lat,
		})
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key)
		if len(locs) > 0 {
			p.GeoAdd(ctx, r.key, locs...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish positions key=%s: %w", r.key, err)
	}
	return nil
}

// Nearby returns robots within radiusMeters of center, closest first.
func (r *RedisFleetIndex) Nearby(
	ctx context.Context,
	center domain.Coordinates,
	radiusMeters float64,
	limit int,
) (_ []ports.NearbyRobot, err error) {
	defer obs.Time(ctx, "redis.Nearby")(&err)

	if !center.Valid() {
		return nil, fmt.Errorf("nearby: center (%v, %v) out of range", center.Lat, center.Lon)
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("nearby: radius must be positive, got %v", radiusMeters)
	}

	q := &redis.GeoRadiusQuery{
		Radius:    radiusMeters,
		Unit:      "m",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}
	if limit > 0 {
		q.Count = limit
	}

	locs, err := r.client.GeoRadius(ctx, r.key, center.Lon, center.Lat, q).Result()
	if err != nil {
		return nil, fmt.Errorf("nearby key=%s: %w", r.key, err)
	}

	out := make([]ports.NearbyRobot, 0, len(locs))
	for _, l := range locs {
		id, err := strconv.Atoi(l.Name)
		if err != nil {
			return nil, fmt.Errorf("nearby: member %q is not a robot id", l.Name)
		}
		out = append(out, ports.NearbyRobot{
			RobotID:        id,
			DistanceMeters: l.Dist,
			Position:       domain.Coordinates{Lat: l.Latitude, Lon: l.Longitude},
		})
	}
	return out, nil
}
