// internal/api/grades/handlers.go
package grades

import (
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/api/apiutil"
	"github.com/westhockey/clubhouse/internal/api/auth"
	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/grades"
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

// GET /api/v1/grades/teams
func HandleTeams(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	season, ok := seasonFilter(w, r)
	if !ok {
		return
	}

	teams, err := grades.Teams(r.Context(), database, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	table, err := apiutil.NewTable(grades.TeamColumns, teams)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to build teams table")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, table)
}

// POST /api/v1/grades/teams
func HandleSubmitTeams(w http.ResponseWriter, r *http.Request, session auth.Session) {
	logger := log.Ctx(r.Context())

	season, ok := seasonFilter(w, r)
	if !ok {
		return
	}

	table, err := apiutil.DecodeTable(r, grades.TeamColumns)
	if err != nil {
		respondDecodeError(w, r, err)
		return
	}
	edited, err := apiutil.BindRows[grades.TeamRow](table)
	if err != nil {
		apiutil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	original, err := grades.Teams(r.Context(), database, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	outcome, err := grades.SubmitTeams(r.Context(), database, original, edited)
	if err != nil {
		if errors.Is(err, db.ErrDatabaseLocked) {
			apiutil.RespondError(w, r, http.StatusLocked, err.Error())
			return
		}
		logger.Error().Err(err).Msg("Team submit failed")
		http.Error(w, "Failed to save team details", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Int64("user_id", session.User.ID).
		Str("season", season).
		Int("teams_updated", outcome.TeamsUpdated).
		Msg("Team details submitted")
	apiutil.RespondJSON(w, r, http.StatusOK, outcome)
}

// GET /api/v1/grades/players
func HandlePlayers(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	season, ok := seasonFilter(w, r)
	if !ok {
		return
	}

	players, err := grades.Players(r.Context(), database, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	table, err := apiutil.NewTable(grades.PlayerColumns, players)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to build players table")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, table)
}

// POST /api/v1/grades/players
func HandleSubmitPlayers(w http.ResponseWriter, r *http.Request, session auth.Session) {
	logger := log.Ctx(r.Context())

	season, ok := seasonFilter(w, r)
	if !ok {
		return
	}

	table, err := apiutil.DecodeTable(r, grades.PlayerColumns)
	if err != nil {
		respondDecodeError(w, r, err)
		return
	}
	edited, err := apiutil.BindRows[grades.PlayerRow](table)
	if err != nil {
		apiutil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	original, err := grades.Players(r.Context(), database, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}
	teams, err := grades.Teams(r.Context(), database, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	outcome, err := grades.SubmitPlayers(r.Context(), database, teams, original, edited)
	if err != nil {
		if errors.Is(err, db.ErrDatabaseLocked) {
			apiutil.RespondError(w, r, http.StatusLocked, err.Error())
			return
		}
		logger.Error().Err(err).Msg("Player assignment submit failed")
		http.Error(w, "Failed to save player assignments", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Int64("user_id", session.User.ID).
		Str("season", season).
		Int("players_updated", outcome.PlayersUpdated).
		Msg("Player assignments submitted")
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
	switch {
	case errors.Is(err, grades.ErrNoTeams), errors.Is(err, grades.ErrNoPlayers):
		apiutil.RespondError(w, r, http.StatusNotFound, err.Error())
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load grade assignment data")
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
