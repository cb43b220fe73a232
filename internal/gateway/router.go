// ABOUTME: HTTP routing for the todo API using gorilla/mux
// ABOUTME: Wires health, readiness, and /todos routes behind request logging middleware

package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// maxBodyBytes caps request bodies on write routes.
const maxBodyBytes = 1 << 20

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(g.logRequests)

	// Health endpoints
	router.HandleFunc("/health", g.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", g.handleReady).Methods(http.MethodGet)

	todos := router.PathPrefix("/todos").Subrouter()
	todos.Use(limitBody)
	todos.HandleFunc("", g.handleCreateTodo).Methods(http.MethodPost)
	todos.HandleFunc("", g.handleListTodos).Methods(http.MethodGet)
	todos.HandleFunc("/{todoId}", g.handleGetTodo).Methods(http.MethodGet)
	todos.HandleFunc("/{todoId}", g.handleUpdateTodo).Methods(http.MethodPut)
	todos.HandleFunc("/{todoId}", g.handleDeleteTodo).Methods(http.MethodDelete)

	return router
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs one line per request.
func (g *Gateway) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := g.logger.Debug
		if rec.status >= http.StatusInternalServerError {
			level = g.logger.Warn
		}
		level("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
