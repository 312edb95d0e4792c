package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ukydev/fleetdash/internal/middleware"
	"github.com/ukydev/fleetdash/internal/models"
)

// Handlers groups every endpoint handler served by the router.
type Handlers struct {
	Auth        *AuthHandler
	Vehicles    *VehicleHandler
	Drivers     *DriverHandler
	Trips       *TripHandler
	Maintenance *MaintenanceHandler
	Fuel        *FuelHandler
	Alerts      *AlertHandler
	Analytics   *AnalyticsHandler
	Settings    *SettingsHandler
	Functions   *FunctionsHandler
	Realtime    *RealtimeHandler
}

// RouterOptions tunes the router.
type RouterOptions struct {
	// SeedEnabled exposes the demo account seeding function without a token.
	SeedEnabled bool
	// RateLimit wraps the unauthenticated endpoints when set.
	RateLimit func(http.Handler) http.Handler
}

// route is one entry of the route table. Public routes skip authentication;
// the others require a signed-in user whose role may open view. An empty
// view admits any signed-in user, with or without a role.
type route struct {
	method  string
	path    string
	public  bool
	view    models.View
	handler http.HandlerFunc
}

func (h Handlers) routes(opts RouterOptions) []route {
	rs := []route{
		{http.MethodPost, "/api/auth/signup", true, "", h.Auth.SignUp},
		{http.MethodPost, "/api/auth/signin", true, "", h.Auth.SignIn},
		{http.MethodPost, "/api/auth/refresh", true, "", h.Auth.Refresh},
		{http.MethodPost, "/api/auth/signout", false, "", h.Auth.SignOut},
		{http.MethodGet, "/api/auth/session", false, "", h.Auth.Session},
		{http.MethodPut, "/api/auth/password", false, "", h.Auth.ChangePassword},
		{http.MethodPut, "/api/users/{id}/role", false, models.ViewUsers, h.Auth.SetRole},

		{http.MethodGet, "/api/vehicles", false, models.ViewDashboard, h.Vehicles.List},
		{http.MethodGet, "/api/vehicles/{id}", false, models.ViewDashboard, h.Vehicles.Get},
		{http.MethodPost, "/api/vehicles", false, models.ViewVehicles, h.Vehicles.Create},
		{http.MethodPut, "/api/vehicles/{id}", false, models.ViewVehicles, h.Vehicles.Update},
		{http.MethodDelete, "/api/vehicles/{id}", false, models.ViewVehicles, h.Vehicles.Delete},
		{http.MethodPost, "/api/vehicles/{id}/position", false, models.ViewTrips, h.Vehicles.Position},

		{http.MethodGet, "/api/drivers", false, models.ViewDrivers, h.Drivers.List},
		{http.MethodGet, "/api/drivers/{id}", false, models.ViewDrivers, h.Drivers.Get},
		{http.MethodPost, "/api/drivers", false, models.ViewDrivers, h.Drivers.Create},
		{http.MethodPut, "/api/drivers/{id}", false, models.ViewDrivers, h.Drivers.Update},
		{http.MethodDelete, "/api/drivers/{id}", false, models.ViewDrivers, h.Drivers.Delete},

		{http.MethodGet, "/api/trips", false, models.ViewDashboard, h.Trips.List},
		{http.MethodGet, "/api/trips/{id}", false, models.ViewDashboard, h.Trips.Get},
		{http.MethodPost, "/api/trips", false, models.ViewTrips, h.Trips.Create},
		{http.MethodPut, "/api/trips/{id}", false, models.ViewTrips, h.Trips.Update},
		{http.MethodDelete, "/api/trips/{id}", false, models.ViewTrips, h.Trips.Delete},

		{http.MethodGet, "/api/maintenance", false, models.ViewMaintenance, h.Maintenance.List},
		{http.MethodGet, "/api/maintenance/{id}", false, models.ViewMaintenance, h.Maintenance.Get},
		{http.MethodPost, "/api/maintenance", false, models.ViewMaintenance, h.Maintenance.Create},
		{http.MethodPut, "/api/maintenance/{id}", false, models.ViewMaintenance, h.Maintenance.Update},
		{http.MethodDelete, "/api/maintenance/{id}", false, models.ViewMaintenance, h.Maintenance.Delete},

		{http.MethodGet, "/api/fuel", false, models.ViewFuel, h.Fuel.List},
		{http.MethodGet, "/api/fuel/{id}", false, models.ViewFuel, h.Fuel.Get},
		{http.MethodPost, "/api/fuel", false, models.ViewFuel, h.Fuel.Create},
		{http.MethodPut, "/api/fuel/{id}", false, models.ViewFuel, h.Fuel.Update},
		{http.MethodDelete, "/api/fuel/{id}", false, models.ViewFuel, h.Fuel.Delete},

		{http.MethodGet, "/api/alerts", false, models.ViewAlerts, h.Alerts.List},
		{http.MethodPost, "/api/alerts/{id}/acknowledge", false, models.ViewAlerts, h.Alerts.Acknowledge},
		{http.MethodDelete, "/api/alerts/{id}", false, models.ViewAlerts, h.Alerts.Dismiss},

		{http.MethodGet, "/api/analytics", false, models.ViewAnalytics, h.Analytics.Metrics},
		{http.MethodGet, "/api/reports", false, models.ViewReports, h.Analytics.Report},

		{http.MethodGet, "/api/settings", false, models.ViewDashboard, h.Settings.Get},
		{http.MethodPut, "/api/settings", false, models.ViewSettings, h.Settings.Update},

		{http.MethodGet, "/api/realtime", false, models.ViewDashboard, h.Realtime.Subscribe},

		{http.MethodPost, "/functions/v1/create-driver", false, models.ViewUsers, h.Functions.CreateDriver},
	}
	if opts.SeedEnabled {
		rs = append(rs, route{http.MethodPost, "/functions/v1/seed-test-accounts", true, "", h.Functions.SeedTestAccounts})
	}
	return rs
}

// NewRouter builds the HTTP router from the route table.
func NewRouter(h Handlers, auth *middleware.AuthMiddleware, opts RouterOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logging)
	r.HandleFunc("/health", Health).Methods(http.MethodGet)

	for _, rt := range h.routes(opts) {
		var handler http.Handler = rt.handler
		if rt.public {
			if opts.RateLimit != nil {
				handler = opts.RateLimit(handler)
			}
		} else {
			guard := auth.Guard()
			if rt.view != "" {
				guard = auth.RequireView(rt.view)
			}
			handler = auth.Authenticate(guard(handler))
		}
		r.Handle(rt.path, handler).Methods(rt.method)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
