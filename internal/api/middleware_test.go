package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careline/clinic-queue/internal/auth"
)

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", time.Hour)
}

func principalEcho(t *testing.T, got **auth.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	issuer := testIssuer()
	id := uuid.New()
	token, err := issuer.Sign(auth.Principal{ID: id, Role: auth.RoleAdmin})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	var got *auth.Principal
	handler := AuthMiddleware(issuer)(principalEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("no principal resolved from bearer token")
	}
	if got.ID != id || got.Role != auth.RoleAdmin {
		t.Fatalf("principal = %+v", got)
	}
}

func TestAuthMiddlewareCookieToken(t *testing.T) {
	issuer := testIssuer()
	id := uuid.New()
	token, err := issuer.Sign(auth.Principal{ID: id, Role: auth.RolePatient, Mobile: "0711111111"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	var got *auth.Principal
	handler := AuthMiddleware(issuer)(principalEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookie, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != id || got.Mobile != "0711111111" {
		t.Fatalf("principal = %+v", got)
	}
}

func TestAuthMiddlewareInvalidTokenPassesAnonymous(t *testing.T) {
	var got *auth.Principal
	handler := AuthMiddleware(testIssuer())(principalEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, guards decide rejection, not the resolver", rec.Code)
	}
	if got != nil {
		t.Fatalf("principal = %+v, want nil", got)
	}
}

func TestRequireAdminGuard(t *testing.T) {
	issuer := testIssuer()
	handler := AuthMiddleware(issuer)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	// Anonymous request.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", rec.Code)
	}

	// Patient token is not enough.
	patientToken, _ := issuer.Sign(auth.Principal{ID: uuid.New(), Role: auth.RolePatient})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+patientToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("patient: status = %d, want 401", rec.Code)
	}

	// Admin passes.
	adminToken, _ := issuer.Sign(auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin: status = %d, want 204", rec.Code)
	}
}

func TestRequirePatientGuard(t *testing.T) {
	issuer := testIssuer()
	handler := AuthMiddleware(issuer)(RequirePatient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	adminToken, _ := issuer.Sign(auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin on patient route: status = %d, want 401", rec.Code)
	}

	patientToken, _ := issuer.Sign(auth.Principal{ID: uuid.New(), Role: auth.RolePatient})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+patientToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("patient: status = %d, want 204", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("no request id in context")
		}
	}))

	// Generated when absent.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("no X-Request-ID header set")
	}

	// Propagated when supplied.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("X-Request-ID = %q, want req-123", got)
	}
}
