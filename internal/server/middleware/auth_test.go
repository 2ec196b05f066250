package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/user/domain"
)

type stubAsserter struct {
	valid map[string]*auth.Claims
}

func (a *stubAsserter) Issue(ctx context.Context, u *domain.User) (string, time.Time, error) {
	return "", time.Time{}, nil
}

func (a *stubAsserter) Verify(ctx context.Context, credential string) (*auth.Claims, error) {
	if claims, ok := a.valid[credential]; ok {
		return claims, nil
	}
	return nil, auth.ErrInvalidCredential
}

func (a *stubAsserter) Revoke(ctx context.Context, credential string) error { return nil }

func identityCapturingHandler(captured **auth.Claims, credential *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetIdentity(r.Context())
		*credential = GetCredential(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_BearerToken(t *testing.T) {
	asserter := &stubAsserter{valid: map[string]*auth.Claims{
		"good-token": {UserID: 4, Email: "u@example.com"},
	}}
	var claims *auth.Claims
	var cred string
	h := Authenticate(asserter)(identityCapturingHandler(&claims, &cred))

	req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if claims == nil || claims.UserID != 4 {
		t.Fatalf("claims = %+v, want user 4", claims)
	}
	if cred != "good-token" {
		t.Errorf("credential = %q", cred)
	}
}

func TestAuthenticate_SessionCookie(t *testing.T) {
	asserter := &stubAsserter{valid: map[string]*auth.Claims{
		"session-id": {UserID: 8, Email: "s@example.com"},
	}}
	var claims *auth.Claims
	var cred string
	h := Authenticate(asserter)(identityCapturingHandler(&claims, &cred))

	req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-id"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if claims == nil || claims.UserID != 8 {
		t.Fatalf("claims = %+v, want user 8", claims)
	}
}

func TestAuthenticate_InvalidCredentialProceedsAnonymously(t *testing.T) {
	asserter := &stubAsserter{valid: map[string]*auth.Claims{}}
	var claims *auth.Claims
	var cred string
	h := Authenticate(asserter)(identityCapturingHandler(&claims, &cred))

	req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("middleware must not reject, status = %d", rec.Code)
	}
	if claims != nil {
		t.Errorf("claims = %+v, want nil", claims)
	}
	if cred != "bad-token" {
		t.Errorf("raw credential should still be in context, got %q", cred)
	}
}

func TestAuthenticate_NoCredential(t *testing.T) {
	asserter := &stubAsserter{valid: map[string]*auth.Claims{}}
	var claims *auth.Claims
	var cred string
	h := Authenticate(asserter)(identityCapturingHandler(&claims, &cred))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/teams", nil))
	if claims != nil || cred != "" {
		t.Errorf("anonymous request should carry no identity or credential")
	}
}

func TestAuthenticate_MalformedAuthorizationHeader(t *testing.T) {
	asserter := &stubAsserter{valid: map[string]*auth.Claims{
		"tok": {UserID: 1},
	}}
	var claims *auth.Claims
	var cred string
	h := Authenticate(asserter)(identityCapturingHandler(&claims, &cred))

	for _, header := range []string{"tok", "Basic dXNlcg==", "Bearer"} {
		claims, cred = nil, ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if claims != nil {
			t.Errorf("header %q should not authenticate", header)
		}
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin got Allow-Origin = %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/teams", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
