package services_test

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopfront/internal/config"
	"shopfront/internal/domain"
	"shopfront/internal/notify"
	"shopfront/internal/repos"
	"shopfront/internal/services"
	"shopfront/internal/token"
)

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Notify(m notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Kind)
	}
	return out
}

// newRegistry opens a seeded in-memory database with every service wired.
func newRegistry(t *testing.T) (*services.Registry, *sqlx.DB, *recorder) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, repos.Seed(db, bcrypt.MinCost))
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		ResetTokenTTL:   time.Hour,
		BcryptCost:      bcrypt.MinCost,
		PublicURL:       "http://shop.test",
	}
	rec := &recorder{}
	return services.NewRegistry(db, cfg, token.NewMemoryBlocklist(), rec), db, rec
}

func user(t *testing.T, reg *services.Registry, id string) *domain.User {
	t.Helper()
	u, err := reg.Users.Get(id)
	require.NoError(t, err)
	return u
}

// setProduct pins a seeded product's price and stock for a test.
func setProduct(t *testing.T, db *sqlx.DB, id, price string, stock int) {
	t.Helper()
	_, err := db.Exec(`UPDATE products SET price = ?, stock = ? WHERE id = ?`, price, stock, id)
	require.NoError(t, err)
}

func stockOf(t *testing.T, reg *services.Registry, id string) int {
	t.Helper()
	a, err := reg.Inventory.CheckAvailability(id)
	require.NoError(t, err)
	return a.Qty
}

// loggedActions runs fn with the standard logger captured and returns the
// action of every JSON line written meanwhile.
func loggedActions(t *testing.T, fn func()) []string {
	t.Helper()
	var buf bytes.Buffer
	oldW, oldFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var actions []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e struct {
			Action string `json:"action"`
		}
		if json.Unmarshal([]byte(line), &e) == nil && e.Action != "" {
			actions = append(actions, e.Action)
		}
	}
	return actions
}
