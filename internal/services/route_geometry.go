package services

import (
	"fmt"
	"math"
	"robot-route-service/internal/domain"
	"sort"
)

const (
	earthRadiusMeters = 6_371_000.0

	// Spacing used when the caller passes a non-positive step.
	DefaultStepMeters = 12.0
)

// Great-circle distance between two points in meters.
func HaversineMeters(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ResampledPath is a densified polyline with its cumulative length table.
// Cum[i] is the distance in meters from Points[0] to Points[i]; Cum[0] is 0
// and the table is non-decreasing.
type ResampledPath struct {
	Points []domain.Coordinates
	Cum    []float64
}

func (p ResampledPath) TotalMeters() float64 {
	if len(p.Cum) == 0 {
		return 0
	}
	return p.Cum[len(p.Cum)-1]
}

func (p ResampledPath) First() domain.Coordinates { return p.Points[0] }

func (p ResampledPath) Last() domain.Coordinates { return p.Points[len(p.Points)-1] }

// Densify a route so consecutive points are at most stepMeters apart.
//
// Every input waypoint survives as an anchor. Zero-length hops are
// dropped. The cumulative table is accumulated in the same pass so its
// last entry is exactly the sum of the input hop lengths.
func ResamplePath(path []domain.Coordinates, stepMeters float64) (ResampledPath, error) {
	if len(path) < 2 {
		return ResampledPath{}, fmt.Errorf("resample path: need at least 2 points, got %d: %w", len(path), domain.ErrInvalidRoute)
	}
	for i, c := range path {
		if !c.Valid() {
			return ResampledPath{}, fmt.Errorf("resample path: point %d (%v, %v) out of range: %w", i, c.Lat, c.Lon, domain.ErrInvalidRoute)
		}
	}
	if stepMeters <= 0 || math.IsNaN(stepMeters) || math.IsInf(stepMeters, 0) {
		stepMeters = DefaultStepMeters
	}

	points := []domain.Coordinates{path[0]}
	cum := []float64{0}

	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		dist := HaversineMeters(a, b)
		if dist <= 0 {
			continue
		}

		before := cum[len(cum)-1]
		n := int(math.Floor(dist / stepMeters))
		for k := 1; k <= n; k++ {
			t := float64(k) * stepMeters / dist
			if t >= 1 {
				break
			}
			points = append(points, lerp(a, b, t))
			cum = append(cum, before+float64(k)*stepMeters)
		}

		points = append(points, b)
		cum = append(cum, before+dist)
	}

	if cum[len(cum)-1] <= 0 {
		return ResampledPath{}, fmt.Errorf("resample path: total length is zero: %w", domain.ErrInvalidRoute)
	}

	return ResampledPath{Points: points, Cum: cum}, nil
}

// PositionAt maps a progress fraction onto the path by arc length.
// Progress is clamped to [0,1]; the endpoints are returned exactly.
func (p ResampledPath) PositionAt(progress float64) domain.Coordinates {
	if math.IsNaN(progress) || progress <= 0 {
		return p.First()
	}
	if progress >= 1 {
		return p.Last()
	}

	target := progress * p.TotalMeters()
	// first index with Cum[i] >= target; i >= 1 because Cum[0] == 0 < target.
	i := sort.SearchFloat64s(p.Cum, target)
	if i <= 0 {
		return p.First()
	}
	if i >= len(p.Cum) {
		return p.Last()
	}

	segLen := p.Cum[i] - p.Cum[i-1]
	if segLen <= 0 {
		return p.Points[i]
	}
	return lerp(p.Points[i-1], p.Points[i], (target-p.Cum[i-1])/segLen)
}

func lerp(a, b domain.Coordinates, t float64) domain.Coordinates {
	return domain.Coordinates{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
	}
}
