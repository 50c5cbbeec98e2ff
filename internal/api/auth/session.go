// internal/api/auth/session.go
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/westhockey/clubhouse/internal/db"
)

const (
	sessionCookieName      = "clubhouse_session"
	sessionTTL             = 8 * time.Hour
	sessionTokenBytes      = 32
	sessionCleanupInterval = 15 * time.Minute
)

// User is the authenticated account behind a session.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
}

// Session is the authentication state handed explicitly to every handler:
// either anonymous or authenticated with a user. There is no ambient
// current-user global anywhere else.
type Session struct {
	User *User
}

func Anonymous() Session            { return Session{} }
func Authenticated(u *User) Session { return Session{User: u} }
func (s Session) IsAnonymous() bool { return s.User == nil }
func (s Session) IsAdmin() bool     { return s.User != nil && s.User.IsAdmin }

// Handler is an http handler that receives the resolved session.
type Handler func(http.ResponseWriter, *http.Request, Session)

type sessionRecord struct {
	userID    int64
	expiresAt time.Time
}

// Store resolves cookie tokens to sessions. Tokens live in memory and are
// intentionally ephemeral; users log in again after a restart.
type Store struct {
	database *db.DB
	secure   bool

	mu          sync.RWMutex
	sessions    map[string]sessionRecord
	cleanupOnce sync.Once
}

func NewStore(database *db.DB, secureCookies bool) *Store {
	return &Store{
		database: database,
		secure:   secureCookies,
		sessions: make(map[string]sessionRecord),
	}
}

// WithSession resolves the request's session and passes it on. Anonymous
// requests proceed with an anonymous session.
func (s *Store) WithSession(next Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessionFromRequest(r)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to resolve session")
			session = Anonymous()
		}
		next(w, r, session)
	}
}

// RequireUser rejects anonymous requests with 401.
func (s *Store) RequireUser(next Handler) http.HandlerFunc {
	return s.WithSession(func(w http.ResponseWriter, r *http.Request, session Session) {
		if session.IsAnonymous() {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r, session)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func (s *Store) RequireAdmin(next Handler) http.HandlerFunc {
	return s.WithSession(func(w http.ResponseWriter, r *http.Request, session Session) {
		if session.IsAnonymous() {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !session.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r, session)
	})
}

// CreateSession issues a new token for the user and sets the cookie.
func (s *Store) CreateSession(w http.ResponseWriter, userID int64) error {
	s.startCleanup()
	s.clearSessionsForUser(userID)

	token, err := newSessionToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(sessionTTL)
	s.mu.Lock()
	s.sessions[token] = sessionRecord{userID: userID, expiresAt: expiresAt}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

// ClearSession drops the request's token and expires the cookie.
func (s *Store) ClearSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (s *Store) sessionFromRequest(r *http.Request) (Session, error) {
	s.startCleanup()

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return Anonymous(), nil
		}
		return Anonymous(), err
	}

	record, ok := s.lookup(cookie.Value)
	if !ok {
		return Anonymous(), nil
	}

	user, err := s.userByID(r.Context(), record.userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Anonymous(), nil
		}
		return Anonymous(), err
	}
	return Authenticated(user), nil
}

func (s *Store) userByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.database.QueryRowContext(ctx, `
		SELECT id, email, full_name, is_admin
		FROM users
		WHERE id = ?`,
		id,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

func (s *Store) lookup(token string) (sessionRecord, bool) {
	s.mu.RLock()
	record, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return sessionRecord{}, false
	}
	if record.expiresAt.Before(time.Now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return sessionRecord{}, false
	}
	return record, true
}

func (s *Store) clearSessionsForUser(userID int64) {
	s.mu.Lock()
	for token, record := range s.sessions {
		if record.userID == userID {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
}

func (s *Store) startCleanup() {
	s.cleanupOnce.Do(func() {
		// Lazy-start cleanup only when sessions are first used.
		go func() {
			ticker := time.NewTicker(sessionCleanupInterval)
			defer ticker.Stop()
			for range ticker.C {
				s.pruneExpired()
			}
		}()
	})
}

func (s *Store) pruneExpired() {
	now := time.Now()
	s.mu.Lock()
	for token, record := range s.sessions {
		if record.expiresAt.Before(now) {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
}

func newSessionToken() (string, error) {
	token := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(token), nil
}
