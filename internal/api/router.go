package api

import (
	"net/http"
	"robot-route-service/internal/api/handlers"
	"robot-route-service/internal/ports"
	"robot-route-service/internal/services"
	"robot-route-service/internal/simulation"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/cors"
)

// Deps are the collaborators the HTTP layer is built from.
// Starter, Lines and Locator may be nil; the affected endpoints report 503 or empty results.
type Deps struct {
	Sim            *simulation.Simulation
	Starter        *services.RouteStarter
	Lines          ports.LineCatalog
	Locator        ports.RobotLocator
	AllowedOrigins []string
	StreamPoll     time.Duration
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	starter := d.Starter
	if starter == nil {
		starter = services.NewRouteStarter(d.Sim, nil, d.Lines)
	}

	robots := &handlers.RobotHandler{Fleet: d.Sim, Locator: d.Locator}
	pkgs := &handlers.PackageHandler{Fleet: d.Sim}
	routes := &handlers.RouteHandler{Starter: starter, Catalog: d.Lines}
	sim := &handlers.SimHandler{Sim: d.Sim}
	stream := handlers.NewStreamHandler(d.Sim, d.StreamPoll)

	mux.HandleFunc("/health", handlers.Health)

	mux.HandleFunc("/api/robot/create", robots.Create)
	mux.HandleFunc("/api/robot/read", robots.Read)
	mux.HandleFunc("/api/robot/update", robots.Update)
	mux.HandleFunc("/api/robot/delete", robots.Delete)
	mux.HandleFunc("/api/robot/list", robots.List)
	mux.HandleFunc("/api/robot/nearby", robots.Nearby)
	mux.HandleFunc("/api/robot/stream", stream.ServeWS)

	mux.HandleFunc("/api/pkg/create", pkgs.Create)

	mux.HandleFunc("/api/map/route", routes.MapRoute)
	mux.HandleFunc("/api/map/lines", routes.Lines)
	mux.HandleFunc("/api/route/start", routes.StartWaypoints)

	mux.HandleFunc("/api/sim/reset", sim.Reset)
	mux.HandleFunc("/api/sim/heartbeat", sim.Heartbeat)
	mux.HandleFunc("/api/sim/speed", sim.Speed)
	mux.HandleFunc("/api/sim/jobs", sim.Jobs)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})

	return alice.New(requestID, loggingMiddleware, recoverPanic, c.Handler).Then(mux)
}
