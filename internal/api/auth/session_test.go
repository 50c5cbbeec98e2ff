package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/testutil"
)

func seedUser(t *testing.T, database *db.DB, email string, admin bool) int64 {
	t.Helper()
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	ts := db.Timestamp()
	res, err := database.Exec(`
		INSERT INTO users (email, full_name, password_hash, is_admin, create_ts, update_ts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		email, "Test User", hash, admin, ts, ts)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// sessionCookie creates a session for the user and returns its cookie.
func sessionCookie(t *testing.T, store *Store, userID int64) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := store.CreateSession(rec, userID); err != nil {
		t.Fatalf("create session: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("CreateSession set %d cookies, want 1", len(cookies))
	}
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database, false)
	userID := seedUser(t, database, "alice@example.com", false)

	cookie := sessionCookie(t, store, userID)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)

	session, err := store.sessionFromRequest(r)
	if err != nil {
		t.Fatalf("sessionFromRequest: %v", err)
	}
	if session.IsAnonymous() {
		t.Fatal("session resolved as anonymous")
	}
	if session.User.ID != userID || session.User.Email != "alice@example.com" {
		t.Errorf("session user = %+v", session.User)
	}
	if session.IsAdmin() {
		t.Error("non-admin session reports admin")
	}
}

func TestSessionWithoutCookieIsAnonymous(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database, false)

	r := httptest.NewRequest("GET", "/", nil)
	session, err := store.sessionFromRequest(r)
	if err != nil {
		t.Fatalf("sessionFromRequest: %v", err)
	}
	if !session.IsAnonymous() {
		t.Error("request without cookie resolved a user")
	}
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database, false)

	handler := store.RequireUser(func(w http.ResponseWriter, r *http.Request, s Session) {
		t.Error("handler reached by anonymous request")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database, false)
	memberID := seedUser(t, database, "member@example.com", false)
	adminID := seedUser(t, database, "admin@example.com", true)

	var reached bool
	handler := store.RequireAdmin(func(w http.ResponseWriter, r *http.Request, s Session) {
		reached = true
	})

	// Member gets 403.
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie(t, store, memberID))
	rec := httptest.NewRecorder()
	handler(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want 403", rec.Code)
	}
	if reached {
		t.Error("handler reached by non-admin")
	}

	// Admin gets through.
	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie(t, store, adminID))
	rec = httptest.NewRecorder()
	handler(rec, r)
	if rec.Code != http.StatusOK || !reached {
		t.Errorf("admin status = %d, reached = %v", rec.Code, reached)
	}
}

func TestClearSessionInvalidatesToken(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database, false)
	userID := seedUser(t, database, "alice@example.com", false)

	cookie := sessionCookie(t, store, userID)

	r := httptest.NewRequest("POST", "/logout", nil)
	r.AddCookie(cookie)
	store.ClearSession(httptest.NewRecorder(), r)

	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)
	session, err := store.sessionFromRequest(r)
	if err != nil {
		t.Fatalf("sessionFromRequest: %v", err)
	}
	if !session.IsAnonymous() {
		t.Error("cleared session still resolves")
	}
}

func TestCreateSessionReplacesExistingSessions(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewStore(database, false)
	userID := seedUser(t, database, "alice@example.com", false)

	first := sessionCookie(t, store, userID)
	_ = sessionCookie(t, store, userID)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(first)
	session, err := store.sessionFromRequest(r)
	if err != nil {
		t.Fatalf("sessionFromRequest: %v", err)
	}
	if !session.IsAnonymous() {
		t.Error("old token survives a new login")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong battery") {
		t.Error("wrong password accepted")
	}
}
