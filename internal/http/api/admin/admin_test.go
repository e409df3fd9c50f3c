package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/hirelane/hirelane-identity/internal/admins"
	"github.com/hirelane/hirelane-identity/internal/config"
	"github.com/hirelane/hirelane-identity/internal/db"
	"github.com/hirelane/hirelane-identity/internal/http/api/admin/handlers"
	"github.com/hirelane/hirelane-identity/internal/http/gate"
	"github.com/hirelane/hirelane-identity/internal/notify"
	"github.com/hirelane/hirelane-identity/internal/otp"
	"github.com/hirelane/hirelane-identity/internal/session"
	"github.com/hirelane/hirelane-identity/internal/settings"
	"github.com/hirelane/hirelane-identity/internal/webui"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	testCookieName = "admin_session"
	testOrigin     = "https://admin.example.com"
)

type outbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (o *outbox) SendOTP(_ context.Context, d notify.Delivery) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes[d.Identifier+"/"+d.Purpose] = d.Code
	return nil
}

func (o *outbox) take(identifier string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := identifier + "/login"
	code := o.codes[key]
	delete(o.codes, key)
	return code
}

type testEnv struct {
	router   *gin.Engine
	conn     *gorm.DB
	outbox   *outbox
	sessions *session.Manager
}

func newTestEnv(t *testing.T, redisClient redis.UniversalClient) *testEnv {
	t.Helper()
	return newTestEnvWithPasskeys(t, redisClient, config.WebAuthnConfig{Origins: []string{testOrigin}})
}

func newTestEnvWithPasskeys(t *testing.T, redisClient redis.UniversalClient, passkeys config.WebAuthnConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_api_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	sqlDB, errSQL := conn.DB()
	if errSQL != nil {
		t.Fatalf("sql db: %v", errSQL)
	}
	sqlDB.SetMaxOpenConns(1)
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	box := &outbox{codes: map[string]string{}}
	codes := otp.NewService(otp.NewGormStore(conn), otp.Options{
		TTL:      10 * time.Minute,
		MaxTries: 5,
		Notifier: box,
	})
	sessions := session.NewManager(session.NewGormRepository(conn), 7*24*time.Hour)

	r := gin.New()
	RegisterAdminRoutes(r, Dependencies{
		DB:       conn,
		Codes:    codes,
		Sessions: sessions,
		Cookie:   handlers.CookieConfig{Name: testCookieName},
		Redis:    redisClient,
		WebAuthn: passkeys,
	})
	bundle, errBundle := webui.Load("")
	if errBundle != nil {
		t.Fatalf("load bundle: %v", errBundle)
	}
	RegisterDashboard(r, gate.Config{
		ProtectedPrefix: "/admin",
		RestrictedRole:  admins.RoleSupport,
		AllowedPath:     "/admin/settings",
		CookieName:      testCookieName,
	}, gate.NewSessionResolver(sessions), bundle)

	return &testEnv{router: r, conn: conn, outbox: box, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal: %v", errMarshal)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createAdmin(t *testing.T, email, role, password string) {
	t.Helper()
	if _, err := admins.Create(context.Background(), e.conn, admins.CreateParams{Email: email, Role: role, Password: password}); err != nil {
		t.Fatalf("create admin %s: %v", email, err)
	}
}

// login runs prepare and verify and returns the session cookie.
func (e *testEnv) login(t *testing.T, email, password, totpCode string) *http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v0/admin/login/prepare", gin.H{"email": email, "password": password}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("prepare: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	code := e.outbox.take(email)
	if code == "" {
		t.Fatalf("expected a login code for %s", email)
	}
	w = e.do(t, http.MethodPost, "/v0/admin/login/verify", gin.H{"email": email, "code": code, "totp_code": totpCode}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	cookie := findCookie(w)
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}
	return cookie
}

func findCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == testCookieName {
			return cookie
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if errUnmarshal := json.Unmarshal(w.Body.Bytes(), &out); errUnmarshal != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), errUnmarshal)
	}
	return out
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "ops@example.com", admins.RoleAdmin, "")

	cookie := env.login(t, "ops@example.com", "", "")
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected HttpOnly SameSite=Lax cookie, got %+v", cookie)
	}
	if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("expected 7 day max-age, got %d", cookie.MaxAge)
	}

	w := env.do(t, http.MethodGet, "/v0/admin/me", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	user, _ := decode(t, w)["user"].(map[string]any)
	if user["email"] != "ops@example.com" || user["role"] != admins.RoleAdmin {
		t.Fatalf("unexpected user %v", user)
	}

	w = env.do(t, http.MethodPost, "/v0/admin/logout", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	if cleared := findCookie(w); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("expected logout to clear the cookie, got %+v", cleared)
	}
	if w = env.do(t, http.MethodGet, "/v0/admin/me", nil, cookie); w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", w.Code)
	}
}

func TestRevokeFailureStillClearsCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "ops@example.com", admins.RoleAdmin, "")
	first := env.login(t, "ops@example.com", "", "")
	second := env.login(t, "ops@example.com", "", "")

	blockRevoke := `CREATE TRIGGER block_revoke BEFORE UPDATE OF revoked_at ON admin_sessions
BEGIN SELECT RAISE(ABORT, 'revocation blocked'); END`
	if errExec := env.conn.Exec(blockRevoke).Error; errExec != nil {
		t.Fatalf("create trigger: %v", errExec)
	}

	w := env.do(t, http.MethodPost, "/v0/admin/logout", nil, first)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("logout: expected 500, got %d", w.Code)
	}
	if cleared := findCookie(w); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("logout: expected an expiring cookie, got %+v", cleared)
	}

	w = env.do(t, http.MethodPost, "/v0/admin/sessions/revoke-all", nil, second)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("revoke all: expected 500, got %d", w.Code)
	}
	if cleared := findCookie(w); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("revoke all: expected an expiring cookie, got %+v", cleared)
	}

	if errExec := env.conn.Exec("DROP TABLE admin_sessions").Error; errExec != nil {
		t.Fatalf("drop sessions: %v", errExec)
	}
	w = env.do(t, http.MethodPost, "/v0/admin/logout", nil, first)
	if cleared := findCookie(w); w.Code != http.StatusInternalServerError || cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("logout without sessions table: expected 500 with expiring cookie, got %d %+v", w.Code, cleared)
	}
}

func TestPrepareDoesNotRevealAccounts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "pw@example.com", admins.RoleAdmin, "correct horse")
	env.createAdmin(t, "off@example.com", admins.RoleAdmin, "")
	if errUpdate := env.conn.Exec("UPDATE admins SET active = ? WHERE email = ?", false, "off@example.com").Error; errUpdate != nil {
		t.Fatalf("deactivate: %v", errUpdate)
	}

	cases := []gin.H{
		{"email": "nobody@example.com"},
		{"email": "pw@example.com", "password": "wrong"},
		{"email": "off@example.com"},
	}
	var bodies []string
	for _, body := range cases {
		w := env.do(t, http.MethodPost, "/v0/admin/login/prepare", body, nil)
		if w.Code != http.StatusAccepted {
			t.Fatalf("prepare %v: expected 202, got %d", body, w.Code)
		}
		bodies = append(bodies, w.Body.String())
	}
	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Fatalf("expected identical bodies, got %q vs %q", b, bodies[0])
		}
	}
	for _, email := range []string{"nobody@example.com", "pw@example.com", "off@example.com"} {
		if code := env.outbox.take(email); code != "" {
			t.Fatalf("expected no code for %s", email)
		}
	}

	env.login(t, "pw@example.com", "correct horse", "")
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "ops@example.com", admins.RoleAdmin, "")

	w := env.do(t, http.MethodPost, "/v0/admin/login/prepare", gin.H{"email": "ops@example.com"}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("prepare: expected 202, got %d", w.Code)
	}
	code := env.outbox.take("ops@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	w = env.do(t, http.MethodPost, "/v0/admin/login/verify", gin.H{"email": "ops@example.com", "code": wrong}, nil)
	if w.Code != http.StatusUnauthorized || findCookie(w) != nil {
		t.Fatalf("expected 401 without cookie, got %d", w.Code)
	}
	w = env.do(t, http.MethodPost, "/v0/admin/login/verify", gin.H{"email": "ops@example.com", "code": "12ab"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed code, got %d", w.Code)
	}
}

func TestTOTPEnrollmentRequiredAtLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "mfa@example.com", admins.RoleAdmin, "")
	cookie := env.login(t, "mfa@example.com", "", "")

	w := env.do(t, http.MethodPost, "/v0/admin/mfa/totp/prepare", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("totp prepare: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	prepared := decode(t, w)
	secret, _ := prepared["secret"].(string)
	if secret == "" || !strings.HasPrefix(prepared["qr_image"].(string), "data:image/png;base64,") {
		t.Fatalf("unexpected prepare response %v", prepared)
	}

	code, errCode := totp.GenerateCode(secret, time.Now())
	if errCode != nil {
		t.Fatalf("totp code: %v", errCode)
	}
	if w = env.do(t, http.MethodPost, "/v0/admin/mfa/totp/confirm", gin.H{"code": "12345"}, cookie); w.Code != http.StatusBadRequest {
		t.Fatalf("confirm with short code: expected 400, got %d", w.Code)
	}
	if w = env.do(t, http.MethodPost, "/v0/admin/mfa/totp/confirm", gin.H{"code": code}, cookie); w.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/v0/admin/login/prepare", gin.H{"email": "mfa@example.com"}, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("prepare: expected 202, got %d", w.Code)
	}
	emailed := env.outbox.take("mfa@example.com")
	w = env.do(t, http.MethodPost, "/v0/admin/login/verify", gin.H{"email": "mfa@example.com", "code": emailed}, nil)
	if w.Code != http.StatusUnauthorized || decode(t, w)["error"] != "mfa required" {
		t.Fatalf("expected mfa required, got %d: %s", w.Code, w.Body.String())
	}

	code, _ = totp.GenerateCode(secret, time.Now())
	env.login(t, "mfa@example.com", "", code)

	code, _ = totp.GenerateCode(secret, time.Now())
	if w = env.do(t, http.MethodPost, "/v0/admin/mfa/totp/disable", gin.H{"code": code}, cookie); w.Code != http.StatusOK {
		t.Fatalf("disable: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	env.login(t, "mfa@example.com", "", "")
}

func TestSessionsListAndRevoke(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "ops@example.com", admins.RoleAdmin, "")
	first := env.login(t, "ops@example.com", "", "")
	second := env.login(t, "ops@example.com", "", "")

	w := env.do(t, http.MethodGet, "/v0/admin/sessions", nil, first)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	listed := decode(t, w)
	list, _ := listed["sessions"].([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	current, _ := listed["current"].(string)
	var otherID string
	for _, item := range list {
		id, _ := item.(map[string]any)["id"].(string)
		if id != current {
			otherID = id
		}
	}

	if w = env.do(t, http.MethodPost, "/v0/admin/sessions/"+otherID+"/revoke", nil, first); w.Code != http.StatusOK {
		t.Fatalf("revoke: expected 200, got %d", w.Code)
	}
	if w = env.do(t, http.MethodGet, "/v0/admin/me", nil, second); w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session: expected 401, got %d", w.Code)
	}
	if w = env.do(t, http.MethodPost, "/v0/admin/sessions/missing/revoke", nil, first); w.Code != http.StatusNotFound {
		t.Fatalf("unknown session: expected 404, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/v0/admin/sessions/revoke-all", nil, first)
	if w.Code != http.StatusOK {
		t.Fatalf("revoke all: expected 200, got %d", w.Code)
	}
	if w = env.do(t, http.MethodGet, "/v0/admin/me", nil, first); w.Code != http.StatusUnauthorized {
		t.Fatalf("after revoke all: expected 401, got %d", w.Code)
	}
}

func TestSupportCannotTouchOtherAccounts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "root@example.com", admins.RoleAdmin, "")
	env.createAdmin(t, "help@example.com", admins.RoleSupport, "")
	rootCookie := env.login(t, "root@example.com", "", "")
	helpCookie := env.login(t, "help@example.com", "", "")

	if w := env.do(t, http.MethodGet, "/v0/admin/admins", nil, helpCookie); w.Code != http.StatusForbidden {
		t.Fatalf("support listing admins: expected 403, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/sessions?owner=root@example.com", nil, helpCookie); w.Code != http.StatusForbidden {
		t.Fatalf("support listing foreign sessions: expected 403, got %d", w.Code)
	}
	rootSessions, err := env.sessions.List(context.Background(), "root@example.com")
	if err != nil || len(rootSessions) != 1 {
		t.Fatalf("expected one root session, got %d, %v", len(rootSessions), err)
	}
	if w := env.do(t, http.MethodPost, "/v0/admin/sessions/"+rootSessions[0].ID+"/revoke", nil, helpCookie); w.Code != http.StatusForbidden {
		t.Fatalf("support revoking foreign session: expected 403, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v0/admin/me", nil, rootCookie); w.Code != http.StatusOK {
		t.Fatalf("root session should survive, got %d", w.Code)
	}
}

func TestAdminsManagement(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "root@example.com", admins.RoleAdmin, "")
	rootCookie := env.login(t, "root@example.com", "", "")

	w := env.do(t, http.MethodPost, "/v0/admin/admins", gin.H{"email": "New@Example.com", "role": "support"}, rootCookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode(t, w)
	if created["email"] != "new@example.com" || created["role"] != "support" {
		t.Fatalf("unexpected created admin %v", created)
	}
	if w = env.do(t, http.MethodPost, "/v0/admin/admins", gin.H{"email": "new@example.com"}, rootCookie); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", w.Code)
	}
	if w = env.do(t, http.MethodPost, "/v0/admin/admins", gin.H{"email": "x@example.com", "role": "Bad Role"}, rootCookie); w.Code != http.StatusBadRequest {
		t.Fatalf("bad role: expected 400, got %d", w.Code)
	}

	newCookie := env.login(t, "new@example.com", "", "")
	id := fmt.Sprintf("%v", created["id"])
	if w = env.do(t, http.MethodPut, "/v0/admin/admins/"+id, gin.H{"active": false}, rootCookie); w.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w = env.do(t, http.MethodGet, "/v0/admin/me", nil, newCookie); w.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated admin: expected 401, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/v0/admin/admins", nil, rootCookie)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	if list, _ := decode(t, w)["admins"].([]any); len(list) != 2 {
		t.Fatalf("expected 2 admins, got %d", len(list))
	}

	var rootID uint64
	if errScan := env.conn.Raw("SELECT id FROM admins WHERE email = ?", "root@example.com").Scan(&rootID).Error; errScan != nil {
		t.Fatalf("root id: %v", errScan)
	}
	if w = env.do(t, http.MethodPut, fmt.Sprintf("/v0/admin/admins/%d", rootID), gin.H{"active": false}, rootCookie); w.Code != http.StatusBadRequest {
		t.Fatalf("self deactivate: expected 400, got %d", w.Code)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "help@example.com", admins.RoleSupport, "")
	cookie := env.login(t, "help@example.com", "", "")

	if w := env.do(t, http.MethodPut, "/v0/admin/settings/RETENTION_DAYS", gin.H{"value": -1}, cookie); w.Code != http.StatusBadRequest {
		t.Fatalf("negative retention: expected 400, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPut, "/v0/admin/settings/lower", gin.H{"value": 1}, cookie); w.Code != http.StatusBadRequest {
		t.Fatalf("bad key: expected 400, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPut, "/v0/admin/settings/RETENTION_DAYS", gin.H{"value": 14}, cookie); w.Code != http.StatusOK {
		t.Fatalf("retention: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := settings.RetentionDays(); got != 14 {
		t.Fatalf("expected snapshot retention 14, got %d", got)
	}
	if w := env.do(t, http.MethodPut, "/v0/admin/settings/SITE_NAME", gin.H{"value": "Acme Hiring"}, cookie); w.Code != http.StatusOK {
		t.Fatalf("site name: expected 200, got %d", w.Code)
	}

	w := env.do(t, http.MethodGet, "/v0/admin/settings", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	values, _ := decode(t, w)["settings"].(map[string]any)
	if values["SITE_NAME"] != "Acme Hiring" || values["RETENTION_DAYS"] != float64(14) {
		t.Fatalf("unexpected settings %v", values)
	}
}

func TestHealthzChecksRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	env := newTestEnv(t, client)

	if w := env.do(t, http.MethodGet, "/healthz", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}
	mr.Close()
	if w := env.do(t, http.MethodGet, "/healthz", nil, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz without redis: expected 503, got %d", w.Code)
	}
}

func TestDashboardGateRedirectsSupport(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createAdmin(t, "root@example.com", admins.RoleAdmin, "")
	env.createAdmin(t, "help@example.com", admins.RoleSupport, "")
	rootCookie := env.login(t, "root@example.com", "", "")
	helpCookie := env.login(t, "help@example.com", "", "")

	w := env.do(t, http.MethodGet, "/admin/billing", nil, helpCookie)
	if w.Code != http.StatusTemporaryRedirect || w.Header().Get("Location") != "/admin/settings" {
		t.Fatalf("support on billing: expected 307 to settings, got %d %q", w.Code, w.Header().Get("Location"))
	}
	w = env.do(t, http.MethodGet, "/admin/settings", nil, helpCookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<html") {
		t.Fatalf("support on settings: expected dashboard html, got %d", w.Code)
	}
	if w = env.do(t, http.MethodGet, "/admin/billing", nil, rootCookie); w.Code != http.StatusOK {
		t.Fatalf("admin on billing: expected 200, got %d", w.Code)
	}
	if w = env.do(t, http.MethodGet, "/admin/billing", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("anonymous on billing: expected pass-through, got %d", w.Code)
	}
}
