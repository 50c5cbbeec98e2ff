// internal/api/invoices/handlers.go
package invoices

import (
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/api/apiutil"
	"github.com/westhockey/clubhouse/internal/api/auth"
	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/invoices"
)

var (
	database *db.DB
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d *db.DB) {
	if d == nil {
		return
	}
	initOnce.Do(func() {
		database = d
	})
}

// GET /api/v1/invoices/outstanding
func HandleOutstanding(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	rows, err := invoices.Outstanding(r.Context(), database)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	table, err := apiutil.NewTable(invoices.Columns, rows)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to build invoices table")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, table)
}

// GET /api/v1/invoices
func HandleSeason(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	season, ok := seasonFilter(w, r)
	if !ok {
		return
	}

	rows, err := invoices.Season(r.Context(), database, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	table, err := apiutil.NewTable(invoices.Columns, rows)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to build invoices table")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, table)
}

// POST /api/v1/invoices
func HandleSubmit(w http.ResponseWriter, r *http.Request, session auth.Session) {
	logger := log.Ctx(r.Context())

	season, ok := seasonFilter(w, r)
	if !ok {
		return
	}

	table, err := apiutil.DecodeTable(r, invoices.Columns)
	if err != nil {
		if errors.Is(err, apiutil.ErrSchemaMismatch) {
			apiutil.RespondError(w, r, http.StatusBadRequest, apiutil.ErrSchemaMismatch.Error())
			return
		}
		apiutil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	edited, err := apiutil.BindRows[invoices.Row](table)
	if err != nil {
		apiutil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	original, err := invoices.Season(r.Context(), database, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	outcome, err := invoices.Submit(r.Context(), database, original, edited)
	if err != nil {
		if errors.Is(err, db.ErrDatabaseLocked) {
			apiutil.RespondError(w, r, http.StatusLocked, err.Error())
			return
		}
		logger.Error().Err(err).Msg("Invoice submit failed")
		http.Error(w, "Failed to save invoices", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Int64("user_id", session.User.ID).
		Str("season", season).
		Int("updated", outcome.Updated).
		Msg("Invoices submitted")
	apiutil.RespondJSON(w, r, http.StatusOK, outcome)
}

func seasonFilter(w http.ResponseWriter, r *http.Request) (string, bool) {
	season := r.URL.Query().Get("season")
	if season == "" {
		apiutil.RespondError(w, r, http.StatusBadRequest, "season is required")
		return "", false
	}
	return season, true
}

func respondLoadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, invoices.ErrNoInvoices) {
		apiutil.RespondError(w, r, http.StatusNotFound, err.Error())
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load invoices")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
