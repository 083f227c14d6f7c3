package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/ports"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type memGeocodeCache struct {
	mu sync.Mutex
	m  map[string]domain.Coordinates
}

func (c *memGeocodeCache) GetMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]domain.Coordinates{}
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *memGeocodeCache) PutMany(_ context.Context, results map[string]domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range results {
		c.m[k] = v
	}
	return nil
}

type memRouteCache struct {
	mu sync.Mutex
	m  map[ports.RouteKey]ports.RouteResult
}

func (c *memRouteCache) Get(_ context.Context, key ports.RouteKey) (ports.RouteResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[key]
	return r, ok, nil
}

func (c *memRouteCache) Put(_ context.Context, key ports.RouteKey, r ports.RouteResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
	return nil
}

type fakeORS struct {
	geocodeCalls    atomic.Int64
	directionsCalls atomic.Int64
	failDirections  atomic.Int64
	country         atomic.String
}

func (f *fakeORS) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/geocode/search", func(w http.ResponseWriter, r *http.Request) {
		f.geocodeCalls.Inc()
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		f.country.Store(r.URL.Query().Get("boundary.country"))

		coords := map[string][]float64{
			"Karlsruhe Hauptbahnhof": {8.4017, 48.9935},
			"Marktplatz Karlsruhe":   {8.4037, 49.0094},
		}[r.URL.Query().Get("text")]

		features := []any{}
		if coords != nil {
			features = append(features, map[string]any{
				"geometry": map[string]any{"coordinates": coords},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"features": features})
	})

	mux.HandleFunc("/v2/directions/foot-walking/geojson", func(w http.ResponseWriter, r *http.Request) {
		f.directionsCalls.Inc()
		assert.Equal(t, http.MethodPost, r.Method)

		if f.failDirections.Load() > 0 {
			f.failDirections.Dec()
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}

		var req directionsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Coordinates, 2)

		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[[8.4017,48.9935],[8.4030,49.0000],[8.4037,49.0094]]},"properties":{"summary":{"distance":1834.2,"duration":1320.5}}}]}`))
	})

	return mux
}

func newTestProvider(t *testing.T, f *fakeORS, opts ORSOptions) *ORSRouteProvider {
	t.Helper()

	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	opts.BaseURL = srv.URL
	opts.HTTPClient = srv.Client()
	p, err := NewORSRouteProvider("test-key", opts)
	require.NoError(t, err)
	return p
}

func TestORSRouteProviderRoute(t *testing.T) {
	f := &fakeORS{}
	p := newTestProvider(t, f, ORSOptions{Country: "DE"})

	res, err := p.Route(context.Background(), "  Karlsruhe   Hauptbahnhof ", "Marktplatz Karlsruhe")
	require.NoError(t, err)

	require.Len(t, res.Path, 3)
	require.Equal(t, domain.Coordinates{Lat: 48.9935, Lon: 8.4017}, res.Path[0])
	require.Equal(t, domain.Coordinates{Lat: 49.0094, Lon: 8.4037}, res.Path[2])
	require.InDelta(t, 1834.2, res.DistanceMeters, 1e-9)
	require.Equal(t, int64(2), f.geocodeCalls.Load())
	require.Equal(t, "DE", f.country.Load())
}

func TestORSRouteProviderUsesCaches(t *testing.T) {
	f := &fakeORS{}
	geo := &memGeocodeCache{m: map[string]domain.Coordinates{}}
	routes := &memRouteCache{m: map[ports.RouteKey]ports.RouteResult{}}
	p := newTestProvider(t, f, ORSOptions{GeocodeCache: geo, RouteCache: routes})

	for i := 0; i < 3; i++ {
		_, err := p.Route(context.Background(), "Karlsruhe Hauptbahnhof", "Marktplatz Karlsruhe")
		require.NoError(t, err)
	}

	require.Equal(t, int64(2), f.geocodeCalls.Load())
	require.Equal(t, int64(1), f.directionsCalls.Load())
	require.Len(t, geo.m, 2)
	require.Len(t, routes.m, 1)
}

func TestORSRouteProviderRetriesTransientFailures(t *testing.T) {
	f := &fakeORS{}
	f.failDirections.Store(2)
	p := newTestProvider(t, f, ORSOptions{})

	_, err := p.Route(context.Background(), "Karlsruhe Hauptbahnhof", "Marktplatz Karlsruhe")
	require.NoError(t, err)
	require.Equal(t, int64(3), f.directionsCalls.Load())
}

func TestORSRouteProviderUnknownAddress(t *testing.T) {
	f := &fakeORS{}
	p := newTestProvider(t, f, ORSOptions{})

	_, err := p.Route(context.Background(), "Karlsruhe Hauptbahnhof", "Atlantis")
	require.ErrorIs(t, err, domain.ErrAddressNotFound)
	require.Zero(t, f.directionsCalls.Load())
}

func TestRetryableClassification(t *testing.T) {
	require.True(t, retryable(&httpStatusError{Code: http.StatusTooManyRequests}))
	require.True(t, retryable(&httpStatusError{Code: http.StatusBadGateway}))
	require.False(t, retryable(&httpStatusError{Code: http.StatusBadRequest}))
	require.False(t, retryable(context.Canceled))
}

func TestMockRouteProvider(t *testing.T) {
	a := domain.Coordinates{Lat: 49.0, Lon: 8.4}
	b := domain.Coordinates{Lat: 49.0, Lon: 8.41}
	p := NewMockRouteProvider(map[string]domain.Coordinates{"A": a, "B": b})

	res, err := p.Route(context.Background(), "A", " B ")
	require.NoError(t, err)
	require.Equal(t, []domain.Coordinates{a, b}, res.Path)

	via := []domain.Coordinates{a, {Lat: 49.005, Lon: 8.405}, b}
	p.AddRoute("A", "B", via)
	res, err = p.Route(context.Background(), "A", "B")
	require.NoError(t, err)
	require.Equal(t, via, res.Path)

	_, err = p.Route(context.Background(), "A", "C")
	require.ErrorIs(t, err, domain.ErrAddressNotFound)
	require.Equal(t, 3, p.Calls())
}

func TestNewORSRouteProviderRequiresKey(t *testing.T) {
	_, err := NewORSRouteProvider(" ", ORSOptions{})
	require.Error(t, err)
}
