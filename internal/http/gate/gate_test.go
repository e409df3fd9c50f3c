package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/session"
	"gorm.io/gorm"
)

type stubResolver struct {
	principal Principal
	err       error
	calls     int
}

func (s *stubResolver) Resolve(context.Context, string) (Principal, error) {
	s.calls++
	return s.principal, s.err
}

var testConfig = Config{
	ProtectedPrefix: "/admin",
	RestrictedRole:  "support",
	AllowedPath:     "/admin/settings",
	CookieName:      "admin_session",
}

func newTestRouter(resolver Resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(testConfig, resolver))
	handler := func(c *gin.Context) {
		state, _ := c.Get(StateKey)
		c.String(http.StatusOK, fmt.Sprint(state))
	}
	r.GET("/admin/*path", handler)
	r.POST("/admin/*path", handler)
	r.GET("/v0/otp/ping", handler)
	return r
}

func doRequest(r http.Handler, method, target, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "admin_session", Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSupportAllowedOnSettings(t *testing.T) {
	r := newTestRouter(&stubResolver{principal: Principal{Email: "s@example.com", Role: "support"}})

	for _, target := range []string{"/admin/settings", "/admin/settings/"} {
		w := doRequest(r, http.MethodGet, target, "token")
		if w.Code != http.StatusOK || w.Body.String() != string(StateAuthenticated) {
			t.Fatalf("%s: expected pass through, got %d %q", target, w.Code, w.Body.String())
		}
	}
}

func TestSupportRedirectedElsewhere(t *testing.T) {
	r := newTestRouter(&stubResolver{principal: Principal{Email: "s@example.com", Role: "support"}})

	for _, target := range []string{"/admin/billing", "/admin/", "/admin/settings/users"} {
		w := doRequest(r, http.MethodGet, target, "token")
		if w.Code != http.StatusTemporaryRedirect {
			t.Fatalf("%s: expected 307, got %d", target, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/admin/settings" {
			t.Fatalf("%s: expected redirect to /admin/settings, got %q", target, loc)
		}
	}

	w := doRequest(r, http.MethodPost, "/admin/billing", "token")
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected POST to be redirected with 307, got %d", w.Code)
	}
}

func TestUnrestrictedRolePassesEverywhere(t *testing.T) {
	r := newTestRouter(&stubResolver{principal: Principal{Email: "a@example.com", Role: "admin"}})
	w := doRequest(r, http.MethodGet, "/admin/billing", "token")
	if w.Code != http.StatusOK || w.Body.String() != string(StateAuthenticated) {
		t.Fatalf("expected pass through, got %d %q", w.Code, w.Body.String())
	}
}

func TestNoCookiePassesThrough(t *testing.T) {
	resolver := &stubResolver{principal: Principal{Role: "support"}}
	r := newTestRouter(resolver)
	w := doRequest(r, http.MethodGet, "/admin/billing", "")
	if w.Code != http.StatusOK || w.Body.String() != string(StateUnauthenticated) {
		t.Fatalf("expected unauthenticated pass through, got %d %q", w.Code, w.Body.String())
	}
	if resolver.calls != 0 {
		t.Fatalf("expected resolver not to be called")
	}
}

func TestResolverFailureFailsOpen(t *testing.T) {
	for _, errResolve := range []error{session.ErrExpired, errors.New("dial tcp: connection refused")} {
		r := newTestRouter(&stubResolver{err: errResolve})
		w := doRequest(r, http.MethodGet, "/admin/billing", "token")
		if w.Code != http.StatusOK || w.Body.String() != string(StateAuthCheckFailed) {
			t.Fatalf("%v: expected fail-open pass through, got %d %q", errResolve, w.Code, w.Body.String())
		}
	}
}

func TestPathsOutsidePrefixIgnored(t *testing.T) {
	resolver := &stubResolver{principal: Principal{Role: "support"}}
	r := newTestRouter(resolver)
	w := doRequest(r, http.MethodGet, "/v0/otp/ping", "token")
	if w.Code != http.StatusOK {
		t.Fatalf("expected pass through, got %d", w.Code)
	}
	if resolver.calls != 0 {
		t.Fatalf("expected resolver not to be called outside the prefix")
	}
}

func TestHTTPResolver(t *testing.T) {
	identity := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		cookie, err := req.Cookie("admin_session")
		switch {
		case err != nil:
			w.WriteHeader(http.StatusUnauthorized)
		case cookie.Value == "support-token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":{"email":"s@example.com","role":"support"}}`))
		case cookie.Value == "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer identity.Close()

	resolver := NewHTTPResolver(identity.URL+"/v0/admin/me", "admin_session", time.Second)
	ctx := context.Background()

	principal, err := resolver.Resolve(ctx, "support-token")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.Role != "support" || principal.Email != "s@example.com" {
		t.Fatalf("unexpected principal %+v", principal)
	}
	if _, err = resolver.Resolve(ctx, "unknown"); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
	if _, err = resolver.Resolve(ctx, "broken"); err == nil {
		t.Fatalf("expected error for 500")
	}

	r := newTestRouter(resolver)
	w := doRequest(r, http.MethodGet, "/admin/billing", "support-token")
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected redirect through http resolver, got %d", w.Code)
	}
}

func TestHTTPResolverUnreachableFailsOpen(t *testing.T) {
	identity := httptest.NewServer(http.NotFoundHandler())
	url := identity.URL + "/v0/admin/me"
	identity.Close()

	r := newTestRouter(NewHTTPResolver(url, "admin_session", time.Second))
	w := doRequest(r, http.MethodGet, "/admin/billing", "support-token")
	if w.Code != http.StatusOK || w.Body.String() != string(StateAuthCheckFailed) {
		t.Fatalf("expected fail-open pass through, got %d %q", w.Code, w.Body.String())
	}
}

func TestSessionResolverWithManager(t *testing.T) {
	dsn := fmt.Sprintf("file:gate_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Admin{}, &models.AdminSession{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	if errCreate := conn.Create(&models.Admin{Email: "s@example.com", Role: "support", Active: true}).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}

	manager := session.NewManager(session.NewGormRepository(conn), time.Hour)
	issued, err := manager.Issue(context.Background(), "s@example.com", session.ClientInfo{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := newTestRouter(NewSessionResolver(manager))
	if w := doRequest(r, http.MethodGet, "/admin/settings", issued.Token); w.Code != http.StatusOK {
		t.Fatalf("expected settings to pass, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/admin/billing", issued.Token); w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected billing to redirect, got %d", w.Code)
	}

	if errRevoke := manager.Revoke(context.Background(), issued.Token); errRevoke != nil {
		t.Fatalf("revoke: %v", errRevoke)
	}
	if w := doRequest(r, http.MethodGet, "/admin/billing", issued.Token); w.Code != http.StatusOK {
		t.Fatalf("expected revoked session to pass through, got %d", w.Code)
	}
}
