package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-directory/internal/auth"
	"github.com/ovaphlow/pitchfork/service-directory/internal/language"
	langrepo "github.com/ovaphlow/pitchfork/service-directory/internal/language/repo"
	"github.com/ovaphlow/pitchfork/service-directory/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-directory/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-directory/internal/user/repo"
)

type testServer struct {
	*httptest.Server
	mock   sqlmock.Sqlmock
	tokens *auth.TokenService
}

func newTestServer(t *testing.T, testRoutes bool) *testServer {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(sqlDB, "postgres")

	logger := zaptest.NewLogger(t).Sugar()
	tokens := auth.NewTokenService(auth.Config{Secret: []byte("router-test"), Issuer: "router-test", TTL: time.Hour})
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	users := user.NewUserService(userrepo.NewUserRepo(db), userrepo.NewHistoryRepo(db), user.BcryptHasher{Cost: bcrypt.MinCost}, tokens)
	srv := httptest.NewServer(RegisterRoutes(Deps{
		Logger:     logger,
		Languages:  language.NewHandler(langrepo.NewLanguageRepo(db), logger),
		Users:      user.NewHandler(users, collector, logger),
		Tokens:     tokens,
		Metrics:    collector,
		Gatherer:   reg,
		TestRoutes: testRoutes,
	}))
	t.Cleanup(func() {
		srv.Close()
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})
	return &testServer{Server: srv, mock: mock, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestHealthAndHeaders(t *testing.T) {
	s := newTestServer(t, false)

	resp, body := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Len(t, resp.Header.Get("X-Request-ID"), 27)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, false)
	req, err := http.NewRequest(http.MethodGet, s.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}

func TestListLanguagesBothSlashForms(t *testing.T) {
	s := newTestServer(t, false)
	cols := []string{"id", "iso_code", "name", "native_name", "created_at", "updated_at"}
	now := time.Now()
	s.mock.ExpectQuery(`FROM languages ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "en", "English", "English", now, now))
	s.mock.ExpectQuery(`FROM languages ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(cols))

	resp, body := s.do(t, http.MethodGet, "/api/languages/", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"isoCode":"en"`)

	resp, body = s.do(t, http.MethodGet, "/api/languages", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)
}

func TestGatedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, true)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/languages/"},
		{http.MethodPost, "/api/languages/requests/"},
		{http.MethodPatch, "/api/languages/requests/1"},
		{http.MethodPatch, "/api/languages/en"},
		{http.MethodDelete, "/api/languages/1"},
		{http.MethodPost, "/api/users/"},
		{http.MethodPatch, "/api/users/1"},
		{http.MethodDelete, "/api/users/1"},
		{http.MethodPost, "/api/users/logout/1"},
		{http.MethodDelete, "/api/users/testing/1"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			resp, body := s.do(t, rt.method, rt.path, `{}`, "")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Access denied! Unauthorized user", body)

			resp, body = s.do(t, rt.method, rt.path, `{}`, "forged")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Invalid token", body)
		})
	}
}

func TestLogoutWithToken(t *testing.T) {
	s := newTestServer(t, false)
	token, err := s.tokens.Issue(auth.Identity{UserID: 1, Email: "ada@example.com"})
	require.NoError(t, err)

	s.mock.ExpectQuery(`INSERT INTO login_history`).
		WithArgs(int64(424242), "logged out").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "action", "created_at"}).AddRow(1, 424242, "logged out", time.Now()))

	resp, body := s.do(t, http.MethodPost, "/api/users/logout/424242", "", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "logout successful!", body)
}

func TestLoginUnknownEmail(t *testing.T) {
	s := newTestServer(t, false)
	s.mock.ExpectQuery(`FROM users WHERE lower\(email\) = \$1`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	resp, body := s.do(t, http.MethodPost, "/api/users/login/", `{"email":"nobody@example.com","password":"x"}`, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body)

	_, scrape := s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Contains(t, scrape, `directory_logins_total{outcome="failure"} 1`)
	assert.Contains(t, scrape, `route="/api/users/login",status="404"`)
}

func TestGetUserByEscapedEmail(t *testing.T) {
	s := newTestServer(t, false)
	s.mock.ExpectQuery(`FROM users WHERE lower\(email\) = \$1`).
		WithArgs("a+b@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	resp, body := s.do(t, http.MethodGet, "/api/users/a%2Bb%40x.com", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Could not find user", body)
}

func TestTestRoutesDisabled(t *testing.T) {
	s := newTestServer(t, false)
	token, err := s.tokens.Issue(auth.Identity{UserID: 1})
	require.NoError(t, err)

	resp, _ := s.do(t, http.MethodDelete, "/api/users/testing/1", "", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zaptest.NewLogger(t).Sugar())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Database connection error", w.Body.String())
}
