package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mreyes/confluence/internal/api/handlers"
	"github.com/mreyes/confluence/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	signalsHandler *handlers.SignalsHandler,
	blacklistHandler *handlers.BlacklistHandler,
	actorsHandler *handlers.ActorsHandler,
	hub *Hub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Signal endpoints
	api.HandleFunc("/signals/latest", signalsHandler.GetLatest).Methods("GET")
	api.HandleFunc("/signals/run", signalsHandler.TriggerRun).Methods("POST")

	// Guard endpoints
	api.HandleFunc("/blacklist", blacklistHandler.List).Methods("GET")
	api.HandleFunc("/blacklist/{ticker}", blacklistHandler.Get).Methods("GET")
	api.HandleFunc("/blacklist/{ticker}", blacklistHandler.Unblock).Methods("DELETE")

	// Actor endpoints
	api.HandleFunc("/actors", actorsHandler.List).Methods("GET")
	api.HandleFunc("/actors/{name}/status", actorsHandler.UpdateStatus).Methods("PUT")

	// Live run stream
	r.HandleFunc("/ws", hub.HandleWS)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "confluence-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
