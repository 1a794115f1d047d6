package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/notify"
)

// Totals come from current catalog prices, never from anything the client
// holds.
func TestOrderTotalsRecomputed(t *testing.T) {
	env := newEnv(t)
	sid := env.bindSession(t, "sid-alice", "u-alice")
	csrfTok := env.csrfToken(t)

	resp := env.postForm(t, "/cart", csrfTok, sid, url.Values{"productId": {"gbc-001"}, "qty": {"2"}, "price": {"1.00"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	// price changes between add-to-cart and checkout
	_, err := env.db.Exec(`UPDATE products SET price = '100.00' WHERE id = 'gbc-001'`)
	require.NoError(t, err)

	order := env.postForm(t, "/orders", csrfTok, sid, url.Values{"total": {"1.00"}})
	require.Equal(t, http.StatusFound, order.StatusCode, body(t, order))
	loc := order.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/orders/"), "redirect %q", loc)
	oid := strings.TrimPrefix(loc, "/orders/")

	alice, err := env.reg.Users.Get("u-alice")
	require.NoError(t, err)
	o, err := env.reg.Orders.Get(alice, oid)
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("200.00")), "total %s", o.Total)
	require.Len(t, o.Items, 1)
	assert.True(t, o.Items[0].Price.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, 0, env.reg.Cart.Count("u-alice"))

	msg, ok := env.sent.last(notify.KindOrderConfirmation)
	require.True(t, ok)
	assert.Equal(t, oid, msg.CorrelationID)
	assert.Equal(t, "alice@shopfront.test", msg.To)

	page := env.get(t, loc, sid)
	require.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, body(t, page), "200.00")
}

func TestCheckoutShortStockGoesBackToCart(t *testing.T) {
	env := newEnv(t)
	sid := env.bindSession(t, "sid-alice", "u-alice")
	csrfTok := env.csrfToken(t)

	resp := env.postForm(t, "/cart", csrfTok, sid, url.Values{"productId": {"radio-001"}, "qty": {"2"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, err := env.db.Exec(`UPDATE products SET stock = 1 WHERE id = 'radio-001'`)
	require.NoError(t, err)

	order := env.postForm(t, "/orders", csrfTok, sid, url.Values{})
	require.Equal(t, http.StatusFound, order.StatusCode)
	assert.Equal(t, "/cart", order.Header.Get("Location"))
	assert.NotEmpty(t, cookieValue(order, "flash"))

	var n int
	require.NoError(t, env.db.Get(&n, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, n)
	assert.Equal(t, 2, env.reg.Cart.Count("u-alice"))
}

func TestCartPagesRequireLogin(t *testing.T) {
	env := newEnv(t)
	for _, path := range []string{"/cart", "/orders", "/wishlist", "/profile"} {
		resp := env.get(t, path, "")
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestWishlistPages(t *testing.T) {
	env := newEnv(t)
	sid := env.bindSession(t, "sid-alice", "u-alice")
	csrfTok := env.csrfToken(t)

	resp := env.postForm(t, "/wishlist", csrfTok, sid, url.Values{"productId": {"snes-001"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	page := env.get(t, "/wishlist", sid)
	assert.Contains(t, body(t, page), "Super Nintendo")

	resp = env.postForm(t, "/wishlist/delete", csrfTok, sid, url.Values{"productId": {"snes-001"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	items, err := env.reg.Wishlist.List("u-alice")
	require.NoError(t, err)
	assert.Empty(t, items)
}
