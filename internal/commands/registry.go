package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	domain "github.com/inference-gateway/operator/internal/domain"
)

// ErrDuplicateRoute is returned by Build when two commands share a path
var ErrDuplicateRoute = errors.New("duplicate command paths")

// BuiltinPaths are served by the HTTP server itself and cannot be used by commands
var BuiltinPaths = []string{"/", "/commands", "/openapi.json", "/redoc", "/client", "/timestamps", "/history", "/health"}

// StaticPrefix is the path prefix of embedded assets
const StaticPrefix = "/static/"

// Route is a manifest bound to its request path
type Route struct {
	Path string
	Manifest
}

// Registry is the static routing table of commands
type Registry struct {
	routes []Route
	byPath map[string]Route
	mutex  sync.RWMutex
}

// Build collects the manifests of every group, in order, and fails fast on paths
// that collide with each other or with the server's own routes
func Build(groups ...Group) (*Registry, error) {
	r := &Registry{byPath: make(map[string]Route)}

	counts := make(map[string]int)
	for _, path := range BuiltinPaths {
		counts[path]++
	}
	for _, g := range groups {
		for _, m := range g.Manifests() {
			route := Route{Path: "/" + m.Name, Manifest: m}
			if route.OperationID == "" {
				route.OperationID = m.Name
			}
			counts[route.Path]++
			if strings.HasPrefix(route.Path, StaticPrefix) {
				counts[route.Path]++
			}
			r.routes = append(r.routes, route)
			r.byPath[route.Path] = route
		}
	}

	var dupes []string
	for path, n := range counts {
		if n > 1 {
			dupes = append(dupes, path)
		}
	}
	if len(dupes) > 0 {
		sort.Strings(dupes)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRoute, strings.Join(dupes, ", "))
	}
	return r, nil
}

// Lookup retrieves a route by path
func (r *Registry) Lookup(path string) (Route, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	route, exists := r.byPath[path]
	return route, exists
}

// Routes returns every route in registration order
func (r *Registry) Routes() []Route {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	routes := make([]Route, len(r.routes))
	copy(routes, r.routes)
	return routes
}

// List returns all registered command names, sorted
func (r *Registry) List() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.routes))
	for _, route := range r.routes {
		names = append(names, route.Name)
	}

	sort.Strings(names)
	return names
}

// Commands returns the public listing served at /commands
func (r *Registry) Commands() []domain.CommandInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]domain.CommandInfo, 0, len(r.routes))
	for _, route := range r.routes {
		args := route.ArgNames
		if args == nil {
			args = []string{}
		}
		out = append(out, domain.CommandInfo{
			Name:        route.Name,
			Description: route.Description,
			ArgNames:    args,
		})
	}
	return out
}
