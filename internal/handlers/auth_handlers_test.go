package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/models"
	"purchase_manager_backend/internal/services"
)

type fakeAuthService struct {
	changed bool
}

func (f *fakeAuthService) Login(_ context.Context, req services.LoginRequest) (*services.AuthResponse, error) {
	switch {
	case req.Email == "off@shop.test":
		return nil, services.ErrAccountInactive
	case req.Email != "admin@shop.test" || req.Password != "password1":
		return nil, services.ErrInvalidCredentials
	}
	return &services.AuthResponse{
		User:         &models.User{ID: 1, Email: req.Email, Role: models.RoleAdmin},
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}, nil
}

func (f *fakeAuthService) Refresh(_ context.Context, token string) (*services.AuthResponse, error) {
	if token != "refresh-1" {
		return nil, services.ErrInvalidCredentials
	}
	return &services.AuthResponse{User: &models.User{ID: 1}, AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (f *fakeAuthService) Me(_ context.Context, id int64) (*models.User, error) {
	if id != 1 {
		return nil, services.ErrUserNotFound
	}
	return &models.User{ID: 1, Email: "admin@shop.test"}, nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, _ int64, req services.ChangePasswordRequest) error {
	if req.CurrentPassword != "password1" {
		return services.ErrInvalidCredentials
	}
	f.changed = true
	return nil
}

func (f *fakeAuthService) EnsureAdmin(context.Context, string, string, string) error { return nil }

func newAuthEngine(svc services.AuthService, userID int64) *gin.Engine {
	h := NewAuthHandler(svc, true)
	r := gin.New()
	r.POST("/auth/login", h.LoginUser)
	r.POST("/auth/refresh", h.RefreshToken)
	r.POST("/auth/logout", h.LogoutUser)
	me := r.Group("/auth", withActor(userID, models.RoleAdmin))
	me.GET("/me", h.GetCurrentUser)
	me.PUT("/me", h.ChangePassword)
	return r
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	r := newAuthEngine(&fakeAuthService{}, 1)

	w := doJSON(t, r, http.MethodPost, "/auth/login", `{"email":"admin@shop.test","password":"password1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["access_token"] != "access-1" {
		t.Fatalf("missing access token: %v", body)
	}
	if strings.Contains(w.Body.String(), "refresh-1") {
		t.Fatalf("refresh token must not be in the body")
	}
	cookie := findCookie(w, refreshCookieName)
	if cookie == nil || cookie.Value != "refresh-1" || !cookie.HttpOnly || !cookie.Secure {
		t.Fatalf("unexpected refresh cookie: %+v", cookie)
	}
}

func TestLoginFailures(t *testing.T) {
	r := newAuthEngine(&fakeAuthService{}, 1)
	cases := []struct {
		body string
		want int
	}{
		{`{"email":"admin@shop.test","password":"nope"}`, http.StatusBadRequest},
		{`{"email":"off@shop.test","password":"password1"}`, http.StatusForbidden},
		{`{"email":"not-an-email","password":"x"}`, http.StatusBadRequest},
		{`{}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodPost, "/auth/login", tc.body)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.body, tc.want, w.Code)
		}
	}
}

func TestRefreshAndLogout(t *testing.T) {
	r := newAuthEngine(&fakeAuthService{}, 1)

	w := doJSON(t, r, http.MethodPost, "/auth/refresh", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie: expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "refresh-1"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "access-2") {
		t.Fatalf("refresh: got %d %s", w.Code, w.Body.String())
	}
	if c := findCookie(w, refreshCookieName); c == nil || c.Value != "refresh-2" {
		t.Fatalf("refresh cookie not rotated: %+v", c)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "stale"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale cookie: expected 401, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/logout", "")
	if c := findCookie(w, refreshCookieName); w.Code != http.StatusOK || c == nil || c.MaxAge >= 0 {
		t.Fatalf("logout should expire the cookie: %d %+v", w.Code, c)
	}
}

func TestMeAndChangePassword(t *testing.T) {
	svc := &fakeAuthService{}
	r := newAuthEngine(svc, 1)

	if w := doJSON(t, r, http.MethodGet, "/auth/me", ""); w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPut, "/auth/me", `{"currentPassword":"wrong","newPassword":"longenough"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("wrong current password: expected 400, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPut, "/auth/me", `{"currentPassword":"password1","newPassword":"short"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPut, "/auth/me", `{"currentPassword":"password1","newPassword":"longenough"}`); w.Code != http.StatusOK || !svc.changed {
		t.Fatalf("change password: got %d, changed=%v", w.Code, svc.changed)
	}

	other := newAuthEngine(svc, 5)
	if w := doJSON(t, other, http.MethodGet, "/auth/me", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", w.Code)
	}
}
