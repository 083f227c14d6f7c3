package routing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/platform/obs"
	"robot-route-service/internal/ports"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ORSOptions configures an ORSRouteProvider. Empty fields take defaults.
type ORSOptions struct {
	BaseURL      string
	Profile      string
	Country      string
	RatePerSec   float64
	HTTPClient   *http.Client
	GeocodeCache ports.GeocodeCache
	RouteCache   ports.RouteCache
}

// ORSRouteProvider implements ports.RouteProvider using OpenRouteService.
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode and route caching
//   - External API calls with rate limiting and retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	session      *http.Client
	limiter      *rate.Limiter
	apiKey       string
	baseURL      string
	profile      string
	country      string
	geocodeCache ports.GeocodeCache
	routeCache   ports.RouteCache
}

func NewORSRouteProvider(apiKey string, opts ORSOptions) (*ORSRouteProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openrouteservice.org"
	}
	if opts.Profile == "" {
		opts.Profile = "foot-walking"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}

	return &ORSRouteProvider{
		session:      opts.HTTPClient,
		limiter:      rate.NewLimiter(limit, 1),
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		profile:      opts.Profile,
		country:      opts.Country,
		geocodeCache: opts.GeocodeCache,
		routeCache:   opts.RouteCache,
	}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Route geocodes both places (cache first) and fetches the directions between them (cache first).
func (o *ORSRouteProvider) Route(ctx context.Context, start, end string) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	normStart, normEnd := normalize(start), normalize(end)
	if normStart == "" || normEnd == "" {
		return ports.RouteResult{}, errors.New("ors route: start and end must be non-empty")
	}

	coords, err := o.resolve(ctx, []string{normStart, normEnd})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("ors route %q -> %q: %w", normStart, normEnd, err)
	}

	key := ports.RouteKey{Profile: o.profile, From: coords[normStart], To: coords[normEnd]}

	if o.routeCache != nil {
		hit, ok, err := o.routeCache.Get(ctx, key)
		if err != nil {
			log.Printf("route cache read failed: %v", err)
		} else if ok {
			return hit, nil
		}
	}

	result, err := o.fetchDirections(ctx, key.From, key.To)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("ors route %q -> %q: %w", normStart, normEnd, err)
	}

	if o.routeCache != nil {
		if err := o.routeCache.Put(ctx, key, result); err != nil {
			log.Printf("route cache write failed: %v", err)
		}
	}

	return result, nil
}

// resolve returns coordinates for every address, consulting the geocode cache before ORS.
func (o *ORSRouteProvider) resolve(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	hits := make(map[string]domain.Coordinates)
	if o.geocodeCache != nil {
		var err error
		hits, err = o.geocodeCache.GetMany(ctx, addresses)
		if err != nil {
			return nil, fmt.Errorf("get geocode cache: %w", err)
		}
	}

	misses := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if _, ok := hits[a]; !ok {
			misses = append(misses, a)
		}
	}

	fresh := map[string]domain.Coordinates{}
	if len(misses) > 0 {
		var err error
		fresh, err = o.geocodeMany(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("retrieving coordinates: %w", err)
		}
	}

	if o.geocodeCache != nil && len(fresh) > 0 {
		if err := o.geocodeCache.PutMany(ctx, fresh); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	out := make(map[string]domain.Coordinates, len(hits)+len(fresh))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}

	for _, a := range addresses {
		if _, ok := out[a]; !ok {
			return nil, fmt.Errorf("missing coordinate for %q", a)
		}
	}
	return out, nil
}
