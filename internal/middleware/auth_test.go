package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/config"
	"github.com/quangph-dn/rhythm-companion/internal/utils"
)

const testSecret = "middleware-test-secret"

// runAuth runs a request through Authenticate with a handler that
// would return 200. The repositories are nil; every rejection tested here
// happens before any database access.
func runAuth(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Authenticate(config.Config{JWTSecret: testSecret}, nil, nil, nil)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestAuthenticateMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := runAuth(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No token provided") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := runAuth(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	tok, err := utils.NewSessionToken(testSecret, 1, "Bob", false, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok.Token})
	rec := runAuth(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticateWrongSecret(t *testing.T) {
	tok, err := utils.NewSessionToken("another-secret", 1, "Bob", false, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := runAuth(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestExtractTokenPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")

	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	if got := ExtractToken(c); got != "cookie-token" {
		t.Fatalf("expected cookie to win, got %q", got)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.Header.Set("Authorization", "Bearer header-token")
	c2 := e.NewContext(req2, httptest.NewRecorder())
	if got := ExtractToken(c2); got != "header-token" {
		t.Fatalf("expected header fallback, got %q", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	h := RequireAdmin()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	cases := []struct {
		name  string
		admin interface{}
		want  int
	}{
		{"admin", true, http.StatusOK},
		{"non-admin", false, http.StatusForbidden},
		{"flag absent", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if tc.admin != nil {
			c.Set(CtxIsAdmin, tc.admin)
		}
		if err := h(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.name, err)
		}
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}
