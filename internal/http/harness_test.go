package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopfront/internal/config"
	"shopfront/internal/notify"
	"shopfront/internal/ratelimit"
	"shopfront/internal/repos"
	"shopfront/internal/server"
	"shopfront/internal/services"
	"shopfront/internal/token"
)

const demoPassword = "Passw0rd!"

// outbox records notifications instead of sending them.
type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *outbox) Notify(m notify.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, m)
}

func (o *outbox) last(kind string) (notify.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.msgs) - 1; i >= 0; i-- {
		if o.msgs[i].Kind == kind {
			return o.msgs[i], true
		}
	}
	return notify.Message{}, false
}

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	reg  *services.Registry
	sent *outbox
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Env:             "test",
		DBDSN:           ":memory:",
		PublicURL:       "http://shop.test",
		MediaDir:        t.TempDir(),
		TemplatesDir:    "../../web/templates",
		StaticDir:       "../../web/static",
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		ResetTokenTTL:   time.Hour,
		BcryptCost:      bcrypt.MinCost,
		CORSOrigins:     []string{"*"},
		APIRateLimit:    1000,
		APIRateWindow:   time.Minute,
		AuthRateLimit:   1000,
		AuthRateWindow:  time.Minute,
	}
}

// newEnv builds the full application over a seeded in-memory database.
func newEnv(t *testing.T, tweak ...func(*config.Config, *server.Deps)) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	require.NoError(t, repos.Seed(db, bcrypt.MinCost))
	t.Cleanup(func() { _ = db.Close() })

	sent := &outbox{}
	deps := server.Deps{DB: db, Limits: ratelimit.NewMemoryStore()}
	for _, fn := range tweak {
		fn(&cfg, &deps)
	}
	reg := services.NewRegistry(db, cfg, token.NewMemoryBlocklist(), sent)
	deps.Config = cfg
	deps.Services = reg
	return &testEnv{app: server.New(deps), db: db, reg: reg, sent: sent}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// csrfToken fetches the login page and returns the CSRF cookie it sets.
func (e *testEnv) csrfToken(t *testing.T) string {
	t.Helper()
	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	tok := cookieValue(resp, "csrf_")
	require.NotEmpty(t, tok, "csrf token missing")
	return tok
}

// postForm submits a CSRF-protected form, optionally as a logged-in session.
func (e *testEnv) postForm(t *testing.T, path, csrfTok, sid string, form url.Values) *http.Response {
	t.Helper()
	form.Set("csrf", csrfTok)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return e.do(t, req)
}

func (e *testEnv) get(t *testing.T, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return e.do(t, req)
}

// bindSession logs userID in under sid without going through the form.
func (e *testEnv) bindSession(t *testing.T, sid, userID string) string {
	t.Helper()
	require.NoError(t, repos.NewUserRepo(e.db).BindSession(sid, userID))
	return sid
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// ---------- JSON API helpers ----------

type apiReply struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (r apiReply) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dst))
}

func (e *testEnv) api(t *testing.T, method, path, bearer string, in any) (*http.Response, apiReply) {
	t.Helper()
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, rd)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp := e.do(t, req)
	var out apiReply
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), "body=%s", raw)
	return resp, out
}

type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func (e *testEnv) login(t *testing.T, email string) session {
	t.Helper()
	resp, out := e.api(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": demoPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Message)
	var s session
	out.decode(t, &s)
	return s
}

// ---------- log capture ----------

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// captureLogs temporarily replaces the standard logger output.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0) // remove timestamps to make JSON parseable
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	mu.Lock()
	defer mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
