// Package admin exposes the maintenance surface: the advisory write lock
// toggle. Engaging the lock makes every mutation return a locked error
// until an admin releases it.
package admin

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/api/apiutil"
	"github.com/westhockey/clubhouse/internal/api/auth"
	"github.com/westhockey/clubhouse/internal/db"
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

type lockState struct {
	Locked bool `json:"locked"`
}

// GET /api/v1/admin/lock
func HandleLockState(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	apiutil.RespondJSON(w, r, http.StatusOK, lockState{Locked: database.Lock.Engaged()})
}

// POST /api/v1/admin/lock
func HandleSetLock(w http.ResponseWriter, r *http.Request, session auth.Session) {
	var req lockState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.RespondError(w, r, http.StatusBadRequest, "invalid lock request")
		return
	}

	if req.Locked {
		database.Lock.Engage()
	} else {
		database.Lock.Release()
	}

	log.Ctx(r.Context()).Info().
		Int64("user_id", session.User.ID).
		Bool("locked", req.Locked).
		Msg("Write lock toggled")
	apiutil.RespondJSON(w, r, http.StatusOK, lockState{Locked: database.Lock.Engaged()})
}
