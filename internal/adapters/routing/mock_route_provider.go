package routing

import (
	"context"
	"fmt"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/ports"
	"sync"
)

// MockRouteProvider serves fixed paths keyed by "start|end".
// Unknown pairs fall back to a straight line when both places are known.
type MockRouteProvider struct {
	mu     sync.Mutex
	routes map[string][]domain.Coordinates
	places map[string]domain.Coordinates
	calls  int
}

func NewMockRouteProvider(places map[string]domain.Coordinates) *MockRouteProvider {
	p := &MockRouteProvider{
		routes: make(map[string][]domain.Coordinates),
		places: make(map[string]domain.Coordinates, len(places)),
	}
	for k, v := range places {
		p.places[normalize(k)] = v
	}
	return p
}

func (p *MockRouteProvider) AddRoute(start, end string, path []domain.Coordinates) {
	p.mu.Lock()
	p.routes[normalize(start)+"|"+normalize(end)] = path
	p.mu.Unlock()
}

// Calls reports how many times Route has been invoked.
func (p *MockRouteProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockRouteProvider) Route(ctx context.Context, start, end string) (ports.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.RouteResult{}, err
	}

	s, e := normalize(start), normalize(end)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	path, ok := p.routes[s+"|"+e]
	if !ok {
		a, okA := p.places[s]
		b, okB := p.places[e]
		if !okA || !okB {
			return ports.RouteResult{}, fmt.Errorf("mock route %q -> %q: %w", s, e, domain.ErrAddressNotFound)
		}
		path = []domain.Coordinates{a, b}
	}

	out := make([]domain.Coordinates, len(path))
	copy(out, path)
	return ports.RouteResult{Path: out}, nil
}
