package gate

import (
	"log/slog"
	"sync"

	"github.com/mcarden/authgate/internal/model"
)

// Routes the gate redirects between
const (
	RouteShell   = "/shell"
	RouteLanding = "/landing"
)

// Router receives redirect requests. Implementations replace the current
// route rather than pushing, so repeated requests for the same route must be
// harmless.
type Router interface {
	Replace(route string)
}

// Gate observes reconciled auth snapshots and redirects between the
// unauthenticated landing flow and the authenticated shell. While the state
// is still resolving it makes no route decision, keeping whatever splash
// presentation is active. Redundant snapshots produce no additional
// navigation.
type Gate struct {
	router Router
	logger *slog.Logger

	mu      sync.Mutex
	current string
}

// New creates a navigation gate over the given router
func New(router Router, logger *slog.Logger) *Gate {
	return &Gate{
		router: router,
		logger: logger.With(slog.String("component", "gate")),
	}
}

// Apply routes according to the snapshot. Idempotent: the same resolved
// state never re-issues a redirect.
func (g *Gate) Apply(snap model.Snapshot) {
	if snap.IsLoading() {
		return
	}

	route := RouteLanding
	if snap.IsLoggedIn() {
		route = RouteShell
	}

	g.mu.Lock()
	changed := g.current != route
	g.current = route
	g.mu.Unlock()

	if changed {
		g.logger.Info("redirect", slog.String("route", route))
		g.router.Replace(route)
	}
}

// CurrentRoute returns the last route issued, or empty before the first
// resolved snapshot
func (g *Gate) CurrentRoute() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// LogRouter is a Router that only records the redirect in the log, for
// deployments where the real UI consumes the state stream directly.
type LogRouter struct {
	Logger *slog.Logger
}

func (r *LogRouter) Replace(route string) {
	r.Logger.Info("route replaced", slog.String("route", route))
}
