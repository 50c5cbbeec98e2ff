// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/westhockey/clubhouse/internal/api"
	"github.com/westhockey/clubhouse/internal/api/admin"
	"github.com/westhockey/clubhouse/internal/api/auth"
	apigrades "github.com/westhockey/clubhouse/internal/api/grades"
	apiinvoices "github.com/westhockey/clubhouse/internal/api/invoices"
	apiresults "github.com/westhockey/clubhouse/internal/api/results"
	apiselections "github.com/westhockey/clubhouse/internal/api/selections"
	"github.com/westhockey/clubhouse/internal/config"
	"github.com/westhockey/clubhouse/internal/db"
)

func newServer(cfg *config.Config, database *db.DB, store *auth.Store) *http.Server {
	router := http.NewServeMux()

	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	auth.InitHandlers(database, store)
	apiselections.InitHandlers(database)
	apiresults.InitHandlers(database)
	apigrades.InitHandlers(database)
	apiinvoices.InitHandlers(database)
	admin.InitHandlers(database)

	registerRoutes(router, store)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, store *auth.Store) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/login", auth.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.HandleLogout)
	mux.Handle("GET /api/v1/auth/me", store.WithSession(auth.HandleCurrentUser))

	// Selections routes
	mux.Handle("GET /api/v1/selections/games", store.RequireUser(apiselections.HandleWeekGames))
	mux.Handle("GET /api/v1/selections/roster", store.RequireUser(apiselections.HandleRoster))
	mux.Handle("POST /api/v1/selections/roster", store.RequireUser(apiselections.HandleSubmitRoster))
	mux.Handle("GET /api/v1/selections/sheet", store.RequireUser(apiselections.HandleWeekSheet))

	// Results routes
	mux.Handle("GET /api/v1/results/games", store.RequireUser(apiresults.HandleWeekGames))
	mux.Handle("POST /api/v1/results/games", store.RequireUser(apiresults.HandleSubmitGames))
	mux.Handle("GET /api/v1/results/players", store.RequireUser(apiresults.HandlePlayerResults))
	mux.Handle("POST /api/v1/results/players", store.RequireUser(apiresults.HandleSubmitPlayers))

	// Grade assignment routes
	mux.Handle("GET /api/v1/grades/teams", store.RequireUser(apigrades.HandleTeams))
	mux.Handle("POST /api/v1/grades/teams", store.RequireUser(apigrades.HandleSubmitTeams))
	mux.Handle("GET /api/v1/grades/players", store.RequireUser(apigrades.HandlePlayers))
	mux.Handle("POST /api/v1/grades/players", store.RequireUser(apigrades.HandleSubmitPlayers))

	// Invoice routes
	mux.Handle("GET /api/v1/invoices/outstanding", store.RequireUser(apiinvoices.HandleOutstanding))
	mux.Handle("GET /api/v1/invoices", store.RequireUser(apiinvoices.HandleSeason))
	mux.Handle("POST /api/v1/invoices", store.RequireUser(apiinvoices.HandleSubmit))

	// Admin routes
	mux.Handle("GET /api/v1/admin/lock", store.RequireAdmin(admin.HandleLockState))
	mux.Handle("POST /api/v1/admin/lock", store.RequireAdmin(admin.HandleSetLock))
}
