package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter registers every route on a gorilla/mux router
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/ws", h.ServeWS).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/sensors", h.GetSensors).Methods(http.MethodGet)
	apiRouter.HandleFunc("/sensors/{id}", h.GetSensor).Methods(http.MethodGet)
	apiRouter.HandleFunc("/zones", h.GetZones).Methods(http.MethodGet)
	apiRouter.HandleFunc("/alerts", h.GetAlerts).Methods(http.MethodGet)
	apiRouter.HandleFunc("/campus", h.GetCampus).Methods(http.MethodGet)
	apiRouter.HandleFunc("/recommendations", h.GetRecommendations).Methods(http.MethodGet)
	apiRouter.HandleFunc("/objects", h.GetObjects).Methods(http.MethodGet)
	apiRouter.HandleFunc("/weather", h.GetWeather).Methods(http.MethodGet)
	apiRouter.HandleFunc("/analytics", h.GetAnalytics).Methods(http.MethodGet)
	apiRouter.HandleFunc("/view", h.GetView).Methods(http.MethodGet)
	apiRouter.HandleFunc("/forecast/{id}", h.GetForecast).Methods(http.MethodGet)
	apiRouter.HandleFunc("/export.csv", h.ExportCSV).Methods(http.MethodGet)

	apiRouter.HandleFunc("/simulation/start", h.StartSimulation).Methods(http.MethodPost)
	apiRouter.HandleFunc("/simulation/stop", h.StopSimulation).Methods(http.MethodPost)
	apiRouter.HandleFunc("/analytics/sensor", h.SetAnalyticsSensor).Methods(http.MethodPut)
	apiRouter.HandleFunc("/analytics/range", h.SetAnalyticsRange).Methods(http.MethodPut)
	apiRouter.HandleFunc("/map/mode", h.SetMapMode).Methods(http.MethodPut)
	apiRouter.HandleFunc("/demo/toggle", h.ToggleDemo).Methods(http.MethodPost)
	apiRouter.HandleFunc("/demo/alert", h.TriggerDemoAlert).Methods(http.MethodPost)

	return router
}

// WithCORS wraps the router with the allowed origins
func WithCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(handler)
}
