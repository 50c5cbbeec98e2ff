// internal/api/auth/handlers.go
package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/api/apiutil"
	"github.com/westhockey/clubhouse/internal/db"
)

var (
	database *db.DB
	store    *Store
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d *db.DB, s *Store) {
	if d == nil || s == nil {
		return
	}
	initOnce.Do(func() {
		database = d
		store = s
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if database == nil || store == nil {
		logger.Error().Msg("Auth handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.RespondError(w, r, http.StatusBadRequest, "invalid login request")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		apiutil.RespondError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	var (
		user         User
		passwordHash string
	)
	err := database.QueryRowContext(r.Context(), `
		SELECT id, email, full_name, is_admin, password_hash
		FROM users
		WHERE email = ?`,
		req.Email,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.IsAdmin, &passwordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.RespondError(w, r, http.StatusUnauthorized, "invalid email or password")
			return
		}
		logger.Error().Err(err).Msg("Failed to load user for login")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !VerifyPassword(passwordHash, req.Password) {
		logger.Warn().Str("email", req.Email).Msg("Login failed: bad password")
		apiutil.RespondError(w, r, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := store.CreateSession(w, user.ID); err != nil {
		logger.Error().Err(err).Msg("Failed to create session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().Int64("user_id", user.ID).Msg("User logged in")
	apiutil.RespondJSON(w, r, http.StatusOK, user)
}

// POST /api/v1/auth/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	if store == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	store.ClearSession(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/me
func HandleCurrentUser(w http.ResponseWriter, r *http.Request, session Session) {
	if session.IsAnonymous() {
		apiutil.RespondError(w, r, http.StatusUnauthorized, "not logged in")
		return
	}
	apiutil.RespondJSON(w, r, http.StatusOK, session.User)
}
