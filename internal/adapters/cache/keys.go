package cache

import (
	"encoding/json"
	"fmt"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/ports"
	"strings"
)

// uniqueTrimmed drops blanks and duplicates while keeping order.
func uniqueTrimmed(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Endpoints are rounded to ~0.1 m so geocoder jitter still hits the same row.
func coordKey(c domain.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

func routeKeyParts(key ports.RouteKey) (profile, from, to string) {
	return key.Profile, coordKey(key.From), coordKey(key.To)
}

// Paths are stored as a JSON array of [lon, lat] pairs.
func encodePath(path []domain.Coordinates) (string, error) {
	pairs := make([][]float64, 0, len(path))
	for _, c := range path {
		pairs = append(pairs, c.CoordsToList())
	}
	b, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("encode path: %w", err)
	}
	return string(b), nil
}

func decodePath(s string) ([]domain.Coordinates, error) {
	var pairs [][]float64
	if err := json.Unmarshal([]byte(s), &pairs); err != nil {
		return nil, fmt.Errorf("decode path: %w", err)
	}

	out := make([]domain.Coordinates, 0, len(pairs))
	for i, p := range pairs {
		if len(p) < 2 {
			return nil, fmt.Errorf("decode path: invalid pair at index %d", i)
		}
		out = append(out, domain.Coordinates{Lon: p[0], Lat: p[1]})
	}
	return out, nil
}
