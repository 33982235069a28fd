package httpserver

import (
	"net/http"

	"chargebook/backend/services/booking-service/internal/http/handlers"
	"chargebook/backend/services/booking-service/internal/http/middleware"
)

// Routes groups handlers.
type Routes struct {
	Health       http.HandlerFunc
	WS           http.HandlerFunc
	Chargers     *handlers.ChargerHandler
	Reservations *handlers.ReservationHandler
	Maintenance  *handlers.MaintenanceHandler
}

// NewRouter registers endpoints. Everything except /health and /ws requires a valid token;
// fleet management and cleanup additionally require the admin role.
func NewRouter(routes Routes, jwtSecret string) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(jwtSecret)
	user := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, auth, middleware.RequireRole(middleware.RoleAdmin))
	}

	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	if routes.WS != nil {
		mux.Handle("GET /ws", routes.WS)
	}

	if c := routes.Chargers; c != nil {
		mux.Handle("GET /chargers", user(c.List))
		mux.Handle("GET /chargers/{id}", user(c.Get))
		mux.Handle("POST /chargers", admin(c.Create))
		mux.Handle("PUT /chargers/{id}", admin(c.Update))
		mux.Handle("DELETE /chargers/{id}", admin(c.Delete))
	}

	if res := routes.Reservations; res != nil {
		mux.Handle("GET /chargers/{id}/reservations", user(res.ByCharger))
		mux.Handle("POST /reservations", user(res.Book))
		mux.Handle("GET /reservations/me", user(res.Mine))
		mux.Handle("GET /reservations", admin(res.All))
		mux.Handle("PUT /reservations/{id}", user(res.Reschedule))
		mux.Handle("DELETE /reservations/{id}", user(res.Cancel))
		mux.Handle("DELETE /reservations/expired", admin(res.Expire))
	}

	if m := routes.Maintenance; m != nil {
		mux.Handle("GET /maintenance", admin(m.List))
		mux.Handle("POST /maintenance", user(m.Report))
		mux.Handle("PUT /maintenance/{id}/assign", admin(m.Assign))
		mux.Handle("PUT /maintenance/{id}/resolve", admin(m.Resolve))
		mux.Handle("DELETE /maintenance/{id}", admin(m.Delete))
	}
	return mux
}
