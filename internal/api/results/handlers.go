// internal/api/results/handlers.go
package results

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/api/apiutil"
	"github.com/westhockey/clubhouse/internal/api/auth"
	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/results"
	"github.com/westhockey/clubhouse/internal/selections"
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

// GET /api/v1/results/games
func HandleWeekGames(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	season, weekEnding, ok := weekFilters(w, r)
	if !ok {
		return
	}

	games, err := results.WeekGames(r.Context(), database, season, weekEnding)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	table, err := apiutil.NewTable(results.GameColumns, games)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to build game results table")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, table)
}

// POST /api/v1/results/games
func HandleSubmitGames(w http.ResponseWriter, r *http.Request, session auth.Session) {
	logger := log.Ctx(r.Context())

	season, weekEnding, ok := weekFilters(w, r)
	if !ok {
		return
	}

	table, err := apiutil.DecodeTable(r, results.GameColumns)
	if err != nil {
		respondDecodeError(w, r, err)
		return
	}
	edited, err := apiutil.BindRows[results.GameRow](table)
	if err != nil {
		apiutil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	original, err := results.WeekGames(r.Context(), database, season, weekEnding)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	outcome, err := results.SubmitGames(r.Context(), database, original, edited)
	if err != nil {
		if errors.Is(err, db.ErrDatabaseLocked) {
			apiutil.RespondError(w, r, http.StatusLocked, err.Error())
			return
		}
		logger.Error().Err(err).Msg("Game results submit failed")
		http.Error(w, "Failed to save game results", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Int64("user_id", session.User.ID).
		Int("updated", outcome.Updated).
		Msg("Game results submitted")
	apiutil.RespondJSON(w, r, http.StatusOK, outcome)
}

// GET /api/v1/results/players
func HandlePlayerResults(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	season, round, team, ok := roundFilters(w, r)
	if !ok {
		return
	}

	players, err := results.PlayerResults(r.Context(), database, season, round, team)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	table, err := apiutil.NewTable(results.PlayerColumns, players)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to build player results table")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, table)
}

// POST /api/v1/results/players
func HandleSubmitPlayers(w http.ResponseWriter, r *http.Request, session auth.Session) {
	logger := log.Ctx(r.Context())

	season, round, team, ok := roundFilters(w, r)
	if !ok {
		return
	}

	table, err := apiutil.DecodeTable(r, results.PlayerColumns)
	if err != nil {
		respondDecodeError(w, r, err)
		return
	}
	edited, err := apiutil.BindRows[results.PlayerRow](table)
	if err != nil {
		apiutil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	original, err := results.PlayerResults(r.Context(), database, season, round, team)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	outcome, err := results.SubmitPlayers(r.Context(), database, original, edited)
	if err != nil {
		if errors.Is(err, db.ErrDatabaseLocked) {
			apiutil.RespondError(w, r, http.StatusLocked, err.Error())
			return
		}
		logger.Error().Err(err).Msg("Player results submit failed")
		http.Error(w, "Failed to save player results", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Int64("user_id", session.User.ID).
		Str("round", round).
		Str("team", team).
		Int("selections_updated", outcome.SelectionsUpdated).
		Int("selections_created", outcome.SelectionsCreated).
		Int("results_updated", outcome.ResultsUpdated).
		Int("results_created", outcome.ResultsCreated).
		Int("suppressed", outcome.Suppressed).
		Msg("Player results submitted")
	apiutil.RespondJSON(w, r, http.StatusOK, outcome)
}

func weekFilters(w http.ResponseWriter, r *http.Request) (string, time.Time, bool) {
	season := r.URL.Query().Get("season")
	if season == "" {
		apiutil.RespondError(w, r, http.StatusBadRequest, "season is required")
		return "", time.Time{}, false
	}
	if raw := r.URL.Query().Get("week_ending"); raw != "" {
		weekEnding, err := time.Parse("2006-01-02", raw)
		if err != nil {
			apiutil.RespondError(w, r, http.StatusBadRequest, "week_ending must be YYYY-MM-DD")
			return "", time.Time{}, false
		}
		return season, weekEnding, true
	}
	weekEnding, err := selections.LastGameDate(r.Context(), database, season)
	if err != nil {
		respondLoadError(w, r, err)
		return "", time.Time{}, false
	}
	return season, weekEnding, true
}

func roundFilters(w http.ResponseWriter, r *http.Request) (season, round, team string, ok bool) {
	q := r.URL.Query()
	season, round, team = q.Get("season"), q.Get("round"), q.Get("team")
	if season == "" || round == "" {
		apiutil.RespondError(w, r, http.StatusBadRequest, "enter values for season and round")
		return "", "", "", false
	}
	if team == "" {
		apiutil.RespondError(w, r, http.StatusBadRequest, "team is required")
		return "", "", "", false
	}
	return season, round, team, true
}

func respondLoadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, results.ErrNoGames),
		errors.Is(err, results.ErrNoPlayers),
		errors.Is(err, selections.ErrNoGames):
		apiutil.RespondError(w, r, http.StatusNotFound, err.Error())
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load results data")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apiutil.ErrSchemaMismatch) {
		apiutil.RespondError(w, r, http.StatusBadRequest, apiutil.ErrSchemaMismatch.Error())
		return
	}
	apiutil.RespondError(w, r, http.StatusBadRequest, err.Error())
}
