package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
	"github.com/wadjakorntonsri/shortlink/pkg/ports/mocks"
)

type testServer struct {
	links  *mocks.MockLinkService
	auth   *mocks.MockAuthService
	db     *mocks.MockLinkRepository
	router http.Handler
}

var owner = &domain.User{ID: "user-1", Username: "alice"}

func setupTestRouter(t *testing.T) *testServer {
	s := &testServer{
		links: new(mocks.MockLinkService),
		auth:  new(mocks.MockAuthService),
		db:    new(mocks.MockLinkRepository),
	}
	s.auth.On("Authenticate", mock.Anything, "good").Return(owner, nil).Maybe()
	s.auth.On("TokenTTL").Return(30 * time.Minute).Maybe()

	cfg := &config.Config{BaseURL: "http://sho.rt"}
	s.router = NewRouter(cfg, s.links, s.auth, NewHealthHandler(map[string]Pinger{"database": s.db}))

	t.Cleanup(func() {
		s.links.AssertExpectations(t)
		s.auth.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateLink_Anonymous(t *testing.T) {
	s := setupTestRouter(t)

	s.links.On("Create", mock.Anything, ports.CreateLinkInput{OriginalURL: "https://example.com/page.html"}).
		Return(&domain.Link{ShortCode: "abc123", OriginalURL: "https://example.com/page.html"}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/links", `{"original_url": "https://example.com/page.html"}`, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "abc123", body["short_code"])
	assert.Equal(t, "http://sho.rt/abc123", body["short_url"])
	assert.Equal(t, float64(0), body["click_count"])
}

func TestCreateLink_WithOwner(t *testing.T) {
	s := setupTestRouter(t)

	s.links.On("Create", mock.Anything, mock.MatchedBy(func(in ports.CreateLinkInput) bool {
		return in.OwnerID == "user-1" && in.CustomAlias == "my-link"
	})).Return(&domain.Link{ShortCode: "my-link", UserID: "user-1"}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/links",
		`{"original_url": "https://example.com/page.html", "custom_alias": "my-link"}`, "good")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "my-link", decodeBody(t, w)["short_code"])
}

func TestCreateLink_BadRequests(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(http.MethodPost, "/api/v1/links", `{invalid json}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/links", `{"custom_alias": "abc"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "validation failed", body["error"])
	details := body["details"].([]interface{})
	assert.Equal(t, "original_url", details[0].(map[string]interface{})["field"])

	for _, target := range []string{"ftp://example.com/doc.pdf", "javascript://example.com/x.html", "example.com/page.html"} {
		w = s.do(http.MethodPost, "/api/v1/links", `{"original_url": "`+target+`"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		details := decodeBody(t, w)["details"].([]interface{})
		assert.Equal(t, "original_url must be an http or https URL", details[0].(map[string]interface{})["message"], target)
	}

	s.links.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLink_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrInvalidURL, http.StatusBadRequest},
		{domain.ErrUnsafeURL, http.StatusBadRequest},
		{domain.ErrInvalidAlias, http.StatusBadRequest},
		{domain.ErrAliasTaken, http.StatusConflict},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := setupTestRouter(t)
			s.links.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := s.do(http.MethodPost, "/api/v1/links", `{"original_url": "https://example.com"}`, "")

			assert.Equal(t, tt.status, w.Code)
			msg := decodeBody(t, w)["error"]
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", msg)
			} else {
				assert.Equal(t, tt.err.Error(), msg)
			}
		})
	}
}

func TestCreateLink_InvalidTokenRejected(t *testing.T) {
	s := setupTestRouter(t)
	s.auth.On("Authenticate", mock.Anything, "stale").Return(nil, domain.ErrUnauthenticated).Once()

	w := s.do(http.MethodPost, "/api/v1/links", `{"original_url": "https://example.com"}`, "stale")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRedirect(t *testing.T) {
	s := setupTestRouter(t)
	link := &domain.Link{ID: "link-1", ShortCode: "abc123", OriginalURL: "example.com/page"}

	s.links.On("Resolve", mock.Anything, "abc123").Return(link, nil).Twice()
	s.links.On("RecordClick", mock.Anything, link, mock.MatchedBy(func(c ports.ClickInfo) bool {
		return c.Referer == "https://news.example.com"
	})).Return(int64(1), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	req.Header.Set("Referer", "https://news.example.com")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/page", w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/abc123?no_stat=1", "", "")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestRedirect_Errors(t *testing.T) {
	s := setupTestRouter(t)
	s.links.On("Resolve", mock.Anything, "gone").Return(nil, domain.ErrExpired).Once()
	s.links.On("Resolve", mock.Anything, "nope").Return(nil, domain.ErrNotFound).Once()

	assert.Equal(t, http.StatusGone, s.do(http.MethodGet, "/gone", "", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/nope", "", "").Code)
	s.links.AssertNotCalled(t, "RecordClick", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveJSON(t *testing.T) {
	s := setupTestRouter(t)
	link := &domain.Link{ID: "link-1", ShortCode: "abc123", OriginalURL: "https://example.com/page.html"}

	s.links.On("Resolve", mock.Anything, "abc123").Return(link, nil).Once()
	s.links.On("RecordClick", mock.Anything, link, mock.Anything).Return(int64(8), nil).Once()

	w := s.do(http.MethodGet, "/api/v1/resolve/abc123", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "https://example.com/page.html", body["original_url"])
	assert.Equal(t, "abc123", body["short_code"])
	assert.Equal(t, float64(8), body["click_count"])
}

func TestSearch(t *testing.T) {
	s := setupTestRouter(t)
	target := "https://example.com/a?b=c"

	s.links.On("SearchByOriginalURL", mock.Anything, target).
		Return(&domain.Link{ShortCode: "abc123", OriginalURL: target}, nil).Once()
	s.links.On("SearchByOriginalURL", mock.Anything, "https://missing.example.com").Return(nil, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/links/search?original_url="+url.QueryEscape(target), "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", decodeBody(t, w)["short_code"])

	w = s.do(http.MethodGet, "/api/v1/links/search?original_url="+url.QueryEscape("https://missing.example.com"), "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/links/search", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	s := setupTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/links"},
		{http.MethodGet, "/api/v1/links/abc123/stats"},
		{http.MethodPut, "/api/v1/links/abc123"},
		{http.MethodDelete, "/api/v1/links/abc123"},
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/auth/logout"},
	} {
		w := s.do(route.method, route.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestUpdateLink(t *testing.T) {
	s := setupTestRouter(t)
	moved := "https://example.org/moved.html"

	s.links.On("Update", mock.Anything, "abc123", "user-1", mock.MatchedBy(func(in ports.UpdateLinkInput) bool {
		return in.OriginalURL != nil && *in.OriginalURL == moved && in.ExpiresAt == nil
	})).Return(&domain.Link{ShortCode: "abc123", OriginalURL: moved}, nil).Once()
	s.links.On("Update", mock.Anything, "theirs", "user-1", mock.Anything).Return(nil, domain.ErrForbidden).Once()

	w := s.do(http.MethodPut, "/api/v1/links/abc123", `{"original_url": "`+moved+`"}`, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, moved, decodeBody(t, w)["original_url"])

	w = s.do(http.MethodPut, "/api/v1/links/theirs", `{"original_url": "`+moved+`"}`, "good")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/v1/links/abc123", `{"original_url": "ftp://example.org/moved.pdf"}`, "good")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation failed", decodeBody(t, w)["error"])
}

func TestDeleteLink(t *testing.T) {
	s := setupTestRouter(t)
	s.links.On("Delete", mock.Anything, "abc123", "user-1").Return(nil).Once()

	w := s.do(http.MethodDelete, "/api/v1/links/abc123", "", "good")

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestListLinks(t *testing.T) {
	s := setupTestRouter(t)
	s.links.On("ListLinks", mock.Anything, "user-1", 2, 5, "docs").
		Return([]domain.Link{{ShortCode: "abc123"}}, int64(6), nil).Once()

	w := s.do(http.MethodGet, "/api/v1/links?page=2&limit=5&search=docs", "", "good")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(6), body["total"])
	assert.Len(t, body["data"], 1)
}

func TestStats(t *testing.T) {
	s := setupTestRouter(t)
	s.links.On("GetStats", mock.Anything, "abc123").
		Return(&domain.LinkStats{TotalClicks: 3, Referrers: map[string]int64{"Direct": 3}}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/links/abc123/stats", "", "good")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeBody(t, w)["total_clicks"])
}

func TestRegister(t *testing.T) {
	s := setupTestRouter(t)
	s.auth.On("Register", mock.Anything, "alice", "alice@example.com", "s3cret!").
		Return(&domain.User{ID: "user-1", Username: "alice", PasswordHash: "hidden"}, nil).Once()
	s.auth.On("Register", mock.Anything, "bob", "", "s3cret!").Return(nil, domain.ErrUserExists).Once()

	w := s.do(http.MethodPost, "/api/v1/auth/register",
		`{"username": "alice", "email": "alice@example.com", "password": "s3cret!"}`, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "hidden")

	w = s.do(http.MethodPost, "/api/v1/auth/register", `{"username": "bob", "password": "s3cret!"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/register", `{"username": "carol", "email": "nope", "password": "s3cret!"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	s := setupTestRouter(t)
	s.auth.On("Login", mock.Anything, "alice", "s3cret!").Return("jwt-token", nil).Twice()
	s.auth.On("Login", mock.Anything, "alice", "wrong").Return("", domain.ErrInvalidCredentials).Once()

	w := s.do(http.MethodPost, "/api/v1/auth/login", `{"username": "alice", "password": "s3cret!"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "jwt-token", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, float64(1800), body["expires_in"])

	form := url.Values{"username": {"alice"}, "password": {"s3cret!"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Result().Cookies())
	assert.Equal(t, authCookieName, w.Result().Cookies()[0].Name)

	w = s.do(http.MethodPost, "/api/v1/auth/login", `{"username": "alice", "password": "wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeAndLogout(t *testing.T) {
	s := setupTestRouter(t)
	s.auth.On("Logout", mock.Anything, "good").Return(nil).Once()

	w := s.do(http.MethodGet, "/api/v1/auth/me", "", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decodeBody(t, w)["username"])

	w = s.do(http.MethodPost, "/api/v1/auth/logout", "", "good")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHealth(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	s.db.On("Ping", mock.Anything).Return(nil).Once()
	w = s.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	s.db.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()
	w = s.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "down", decodeBody(t, w)["status"])
}
