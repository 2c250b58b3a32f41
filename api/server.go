/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. Metrics:    Prometheus request counters and latency

ROUTE GROUPS:
  /api/buildings/*   Parent property management
  /api/properties/*  Unit management
  /api/tenancies/*   Tenancy lifecycle: assign, pay, renew, end
  /api/dashboard/*   Owner analytics
  /metrics           Prometheus scrape endpoint
  /health            Liveness probe
  /*                 Static files (frontend)

STATIC FILE SERVING:
  In production, serves the built React app from web/dist/.
  Falls back to index.html for client-side routing.

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions tune the middleware stack.
type RouterOptions struct {
	CORSOrigins []string
	Metrics     *Metrics
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Parent property routes
		r.Route("/buildings", func(r chi.Router) {
			r.Get("/", h.ListBuildings)
			r.Post("/", h.CreateBuilding)
		})

		// Unit routes
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.CreateProperty)
			r.Get("/{id}", h.GetProperty)
		})

		// Tenancy lifecycle routes
		r.Route("/tenancies", func(r chi.Router) {
			r.Get("/", h.ListTenancies)
			r.Post("/", h.AssignTenant)
			r.Get("/{id}", h.GetTenancy)
			r.Get("/{id}/arrears", h.GetArrears)
			r.Get("/{id}/breakdown", h.GetBreakdown)
			r.Get("/{id}/payments", h.ListPayments)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Post("/{id}/renew", h.RenewLease)
			r.Post("/{id}/end", h.EndTenancy)
		})

		// Tenant-facing routes
		r.Get("/tenants/{id}/payments", h.GetTenantPayments)

		// Dashboard routes
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", h.GetStats)
			r.Get("/revenue", h.GetRevenue)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Serve static files (React app)
	// First try ./web/dist (development), then fall back to message
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// Try relative to executable
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			fullPath := filepath.Join(staticDir, path)

			// Check if file exists
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Rent Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Rent Engine API</h1>
<p>The frontend is not built yet. Run <code>cd web && npm install && npm run build</code></p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/properties">/api/properties</a> - List units</li>
<li><a href="/api/tenancies">/api/tenancies</a> - List tenancies</li>
<li><a href="/api/dashboard/stats">/api/dashboard/stats</a> - Portfolio summary</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
