package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/imagehost/backend/internal/errors"
)

func newTestHandlers(t *testing.T, production bool) *Handlers {
	t.Helper()
	svc, _ := newTestService()
	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewHandlers(svc, 7*24*time.Hour, production)
}

func postLogin(t *testing.T, h *Handlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	apperrors.HandleFunc(h.Login)(rec, req)
	return rec
}

func loginFailure(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Success {
		t.Error("error response has success = true")
	}
	return body.Error.Code, body.Error.Message
}

func TestLoginFailureIsIndistinguishable(t *testing.T) {
	h := newTestHandlers(t, false)

	// An email with no account and a bad password on a real account must
	// produce byte-identical failures, or the endpoint enumerates users.
	noUserCode, noUserMsg := loginFailure(t, postLogin(t, h,
		`{"email":"nobody@example.com","password":"secret1"}`))
	badPassCode, badPassMsg := loginFailure(t, postLogin(t, h,
		`{"email":"alice@example.com","password":"wrong"}`))

	if noUserCode != "AUTH_FAILED" {
		t.Errorf("unknown email code = %q, want AUTH_FAILED", noUserCode)
	}
	if noUserCode != badPassCode {
		t.Errorf("codes differ: %q vs %q", noUserCode, badPassCode)
	}
	if noUserMsg != badPassMsg {
		t.Errorf("messages differ: %q vs %q", noUserMsg, badPassMsg)
	}
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatal("no refresh cookie set")
	return nil
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	h := newTestHandlers(t, false)

	rec := postLogin(t, h, `{"email":"alice@example.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	cookie := refreshCookie(t, rec)
	if cookie.Value == "" {
		t.Error("refresh cookie is empty")
	}
	if !cookie.HttpOnly {
		t.Error("refresh cookie must be http-only")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("SameSite = %v, want strict", cookie.SameSite)
	}
	if cookie.Path != "/api/auth" {
		t.Errorf("Path = %q, want /api/auth", cookie.Path)
	}
	if want := int((7 * 24 * time.Hour).Seconds()); cookie.MaxAge != want {
		t.Errorf("MaxAge = %d, want %d", cookie.MaxAge, want)
	}
	if cookie.Secure {
		t.Error("Secure should be off outside production")
	}

	var body struct {
		Data struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Tokens["accessToken"] == "" {
		t.Error("body should carry the access token")
	}
	if body.Data.Tokens["refreshToken"] != "" {
		t.Error("refresh token must not appear in the body")
	}
}

func TestLoginCookieSecureInProduction(t *testing.T) {
	h := newTestHandlers(t, true)

	rec := postLogin(t, h, `{"email":"alice@example.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !refreshCookie(t, rec).Secure {
		t.Error("production refresh cookie must be Secure")
	}
}

func TestLogoutClearsRefreshCookie(t *testing.T) {
	h := newTestHandlers(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	apperrors.HandleFunc(h.Logout)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookie := refreshCookie(t, rec)
	if cookie.Value != "" {
		t.Error("logout should blank the cookie value")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative to expire the cookie", cookie.MaxAge)
	}
}

func TestRefreshWithoutTokenIsRejected(t *testing.T) {
	h := newTestHandlers(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	apperrors.HandleFunc(h.Refresh)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "NO_REFRESH_TOKEN" {
		t.Errorf("code = %q, want NO_REFRESH_TOKEN", code)
	}
}

func TestRefreshFromCookie(t *testing.T) {
	h := newTestHandlers(t, false)

	login := postLogin(t, h, `{"email":"alice@example.com","password":"secret1"}`)
	cookie := refreshCookie(t, login)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	apperrors.HandleFunc(h.Refresh)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.AccessToken == "" {
		t.Error("refresh should mint a new access token")
	}
}
