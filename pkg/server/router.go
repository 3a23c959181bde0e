// pkg/server/router.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"AveList/pkg/dataset"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const compressKey ctxKey = "compress"

func withCompression(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), compressKey, enabled)))
		})
	}
}

func compressionAllowed(r *http.Request) bool {
	enabled, _ := r.Context().Value(compressKey).(bool)
	return enabled
}

// recoverer turns a panic into a JSON 500 response.
func recoverer(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					if rv == http.ErrAbortHandler {
						panic(rv)
					}
					stack := debug.Stack()
					logger.Errorf("panic serving %s %s: %v\n%s", r.Method, r.URL.RequestURI(), rv, stack)
					body := errorBody{Message: fmt.Sprint(rv)}
					if !production {
						body.Stack = string(stack)
					}
					writeJSON(w, r, http.StatusInternalServerError, failure{Error: body})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter creates the chi router of the mock backend.
//
// Routes:
//   - GET /api                                  - endpoint index
//   - GET /api/virtual-list/data?start&limit    - a chunk of items (delayed)
//   - GET /api/virtual-list/data/count          - number of items
//   - GET /api/virtual-list/data/search?keyword - search (delayed)
//   - GET /api/virtual-list/data/{id}           - one item
//   - GET /health                               - liveness
//   - GET /debug/access-log?seconds             - tail the access log
//   - GET /metrics                              - when Config.Metrics is set
func NewRouter(ds dataset.Dataset, conf *Config) http.Handler {
	conf.Check()
	h := &handlers{ds: ds, conf: conf}
	alog := newAccessLog(conf.SlowRequest, conf.Observer)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(alog.middleware)
	r.Use(withCompression(conf.Compress))
	r.Use(recoverer(conf.Production))

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.index)
		r.Route("/virtual-list/data", func(r chi.Router) {
			r.Get("/", h.withDelay(h.data))
			r.Get("/count", h.count)
			r.Get("/search", h.withDelay(h.search))
			r.Get("/{id}", h.item)
		})
	})
	r.Get("/health", h.health)
	r.Get("/debug/access-log", alog.tail)
	if conf.Metrics != nil {
		r.Handle("/metrics", conf.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.RequestURI()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
	})
	return r
}
