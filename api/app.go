// Package api implements the mount daemon's HTTP surface (§6.2): a root
// endpoint for reading and advancing the coordinator's head, and a
// catch-all path endpoint serving directory listings and file payloads out
// of the current mount. Routing and per-request logging generalize the
// teacher's own App/dispatcher pattern (registry/app.go, registry/context.go)
// from repository-scoped routes to this spec's two routes.
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/mount"
	"github.com/mountfs/mount/rootptr"
)

// App is the mount daemon's HTTP application: a router plus the live mount
// state reads are served from and pushes advance.
type App struct {
	Context context.Context

	router *mux.Router
	store  blockstore.Store
	coord  rootptr.Coordinator
	token  string // required bearer token on POST /api/v0/root; empty disables the check

	mu sync.Mutex
	m  *mount.Mount
}

// NewApp constructs the application, pulling the coordinator's current head
// into a fresh in-memory mount to serve the first round of reads. An empty
// coordinator head initializes a brand new empty mount instead of pulling.
func NewApp(ctx context.Context, store blockstore.Store, coord rootptr.Coordinator, token string) (*App, error) {
	head, err := coord.PullRoot(ctx)
	if err != nil {
		return nil, err
	}

	var m *mount.Mount
	if head.IsDefault() {
		m, err = mount.Init(ctx, store)
	} else {
		m, err = mount.Pull(ctx, head, store)
	}
	if err != nil {
		return nil, err
	}

	app := &App{
		Context: ctx,
		store:   store,
		coord:   coord,
		token:   token,
		m:       m,
	}
	app.router = app.buildRouter()
	return app, nil
}

func (app *App) buildRouter() *mux.Router {
	router := mux.NewRouter()
	router.Methods(http.MethodGet).Path("/api/v0/root").HandlerFunc(app.handleGetRoot)
	router.Methods(http.MethodPost).Path("/api/v0/root").HandlerFunc(app.handlePostRoot)
	router.Methods(http.MethodGet).PathPrefix("/").HandlerFunc(app.handleGetPath)
	return router
}

// ServeHTTP implements http.Handler, stamping every request with a request
// ID and a request-scoped logger before dispatching into the router.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := withRequestContext(app.Context, r)
	r = r.WithContext(ctx)
	dcontext.GetLogger(ctx).Infof("%s %s", r.Method, r.URL.Path)
	app.router.ServeHTTP(w, r)
}

// currentMount returns the App's live mount under its guarding mutex.
func (app *App) currentMount() *mount.Mount {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.m
}
