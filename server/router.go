package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 注册 AI DJ 路由
func NewRouter(h *AIDJHandler, jwtSecret string) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api/ai-dj").Subrouter()
	api.Handle("/session",
		OptionalAuthMiddleware(jwtSecret)(http.HandlerFunc(h.SessionHandler))).
		Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet, http.MethodOptions)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}
