// internal/api/selections/handlers.go
package selections

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/api/apiutil"
	"github.com/westhockey/clubhouse/internal/api/auth"
	"github.com/westhockey/clubhouse/internal/db"
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

// GET /api/v1/selections/games
func HandleWeekGames(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	season := r.URL.Query().Get("season")
	if season == "" {
		apiutil.RespondError(w, r, http.StatusBadRequest, "season is required")
		return
	}
	weekEnding, err := weekEndingFromQuery(r, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	games, err := selections.WeekGames(r.Context(), database, season, weekEnding)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, games)
}

// GET /api/v1/selections/roster
func HandleRoster(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	season, round, team, ok := rosterFilters(w, r)
	if !ok {
		return
	}

	roster, err := selections.Roster(r.Context(), database, season, round, team)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}
	if err := selections.VerifyCompleteness(roster); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Roster materialization broke completeness")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	table, err := apiutil.NewTable(selections.Columns, roster)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to build roster table")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, table)
}

// POST /api/v1/selections/roster
//
// The request body is the edited roster table; receiving it is the submit
// signal. The original snapshot is reloaded server-side and the diff decides
// what gets written.
func HandleSubmitRoster(w http.ResponseWriter, r *http.Request, session auth.Session) {
	logger := log.Ctx(r.Context())

	season, round, team, ok := rosterFilters(w, r)
	if !ok {
		return
	}

	table, err := apiutil.DecodeTable(r, selections.Columns)
	if err != nil {
		respondDecodeError(w, r, err)
		return
	}
	edited, err := apiutil.BindRows[selections.Row](table)
	if err != nil {
		apiutil.RespondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	original, err := selections.Roster(r.Context(), database, season, round, team)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	outcome, err := selections.SubmitRoster(r.Context(), database, original, edited)
	if err != nil {
		if errors.Is(err, db.ErrDatabaseLocked) {
			apiutil.RespondError(w, r, http.StatusLocked, err.Error())
			return
		}
		logger.Error().Err(err).Msg("Roster submit failed")
		http.Error(w, "Failed to save selections", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Int64("user_id", session.User.ID).
		Str("round", round).
		Str("team", team).
		Int("updated", outcome.Updated).
		Int("created", outcome.Created).
		Msg("Roster submitted")
	apiutil.RespondJSON(w, r, http.StatusOK, outcome)
}

// GET /api/v1/selections/sheet
func HandleWeekSheet(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	season := r.URL.Query().Get("season")
	if season == "" {
		apiutil.RespondError(w, r, http.StatusBadRequest, "season is required")
		return
	}
	weekEnding, err := weekEndingFromQuery(r, season)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	sheet, err := selections.WeekSheet(r.Context(), database, season, weekEnding)
	if err != nil {
		respondLoadError(w, r, err)
		return
	}

	apiutil.RespondJSON(w, r, http.StatusOK, map[string]any{
		"rows":             sheet,
		"keeper_conflicts": selections.SheetKeeperConflicts(sheet),
		"double_booked":    selections.DoubleBooked(sheet),
	})
}

func rosterFilters(w http.ResponseWriter, r *http.Request) (season, round, team string, ok bool) {
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

// weekEndingFromQuery parses the week_ending filter, defaulting to the most
// recent game date for the season.
func weekEndingFromQuery(r *http.Request, season string) (time.Time, error) {
	if raw := r.URL.Query().Get("week_ending"); raw != "" {
		weekEnding, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, err
		}
		return weekEnding, nil
	}
	return selections.LastGameDate(r.Context(), database, season)
}

func respondLoadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, selections.ErrNoGames), errors.Is(err, selections.ErrNoSelections):
		apiutil.RespondError(w, r, http.StatusNotFound, err.Error())
	default:
		var parseErr *time.ParseError
		if errors.As(err, &parseErr) {
			apiutil.RespondError(w, r, http.StatusBadRequest, "week_ending must be YYYY-MM-DD")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load selections data")
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
