package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-sewa/internal/common"
)

var testSecret = []byte("test-secret-0123456789abcdef")

func signToken(t *testing.T, role string, expires time.Time) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Issuer("sewa").
		Audience([]string{"sewa-api"}).
		Subject("staff-1").
		IssuedAt(time.Now()).
		Expiration(expires)
	if role != "" {
		builder = builder.Claim("role", role)
	}
	tok, err := builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func testMiddleware() Middleware {
	return Middleware{Verifier: Verifier{
		Secret:   testSecret,
		Issuer:   "sewa",
		Audience: "sewa-api",
	}}
}

func TestRequireAdminAcceptsAdminToken(t *testing.T) {
	m := testMiddleware()
	var gotSubject string
	handler := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = common.UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin", time.Now().Add(time.Minute)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotSubject != "staff-1" {
		t.Fatalf("subject = %q, want staff-1", gotSubject)
	}
}

func TestRequireAdminRejectsNonAdminRole(t *testing.T) {
	m := testMiddleware()
	handler := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "viewer", time.Now().Add(time.Minute)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	m := testMiddleware()
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	m := testMiddleware()
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin", time.Now().Add(-time.Minute)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticatePassesThroughAnonymous(t *testing.T) {
	m := testMiddleware()
	called := false
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := common.UserID(r.Context()); ok {
			t.Fatal("anonymous request should carry no subject")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("next handler not called")
	}
}

func TestVerifierRejectsWrongKey(t *testing.T) {
	v := Verifier{Secret: []byte("other-key"), Issuer: "sewa", Audience: "sewa-api"}
	if _, err := v.Parse(signToken(t, "admin", time.Now().Add(time.Minute))); err == nil {
		t.Fatal("expected signature validation failure")
	}
}
