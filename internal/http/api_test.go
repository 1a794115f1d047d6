package handlers_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiOrder struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Total  decimal.Decimal `json:"total"`
	Items  []struct {
		ProductID string          `json:"product_id"`
		Quantity  int             `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
	} `json:"order_items"`
}

type apiPagination struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

func TestAPIRootAndHealth(t *testing.T) {
	env := newEnv(t)
	resp, out := env.api(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info map[string]string
	out.decode(t, &info)
	assert.Equal(t, "shopfront", info["name"])

	resp, out = env.api(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var h map[string]any
	out.decode(t, &h)
	assert.Equal(t, true, h["db_ok"])
}

func TestAPIRegisterLoginMe(t *testing.T) {
	env := newEnv(t)
	resp, out := env.api(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "Dana@Shopfront.test", "password": "Sup3rSecret", "first_name": "Dana", "last_name": "Scully",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)
	var s session
	out.decode(t, &s)
	assert.NotEmpty(t, s.AccessToken)
	assert.Equal(t, "dana@shopfront.test", s.User.Email)
	assert.Equal(t, "customer", s.User.Role)

	resp, out = env.api(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "dana@shopfront.test", "password": "Sup3rSecret", "first_name": "Dana", "last_name": "Again",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, out.Success)

	resp, out = env.api(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "nope", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, out.Errors)

	// fields are trimmed before they are validated
	resp, out = env.api(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": " Carol@Example.com ", "password": "Sup3rSecret", "first_name": " Carol ", "last_name": "Danvers",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)
	var carol session
	out.decode(t, &carol)
	assert.Equal(t, "carol@example.com", carol.User.Email)

	resp, _ = env.api(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "erin@example.com", "password": "Sup3rSecret", "first_name": "   ", "last_name": "Erin",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = env.api(t, http.MethodGet, "/users/me", s.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	out.decode(t, &me)
	assert.Equal(t, "dana@shopfront.test", me["email"])
	assert.NotContains(t, me, "password_hash")

	resp, _ = env.api(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIRefreshAndLogoutRevoke(t *testing.T) {
	env := newEnv(t)
	s := env.login(t, "alice@shopfront.test")

	resp, out := env.api(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Message)
	var next session
	out.decode(t, &next)
	assert.NotEmpty(t, next.AccessToken)

	// the old refresh token is single use
	resp, _ = env.api(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": s.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// an access token is not a refresh token
	resp, _ = env.api(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": next.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.api(t, http.MethodPost, "/auth/logout", next.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.api(t, http.MethodGet, "/auth/me", next.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIDeactivatedUserLosesAccess(t *testing.T) {
	env := newEnv(t)
	bob := env.login(t, "bob@shopfront.test")
	admin := env.login(t, "admin@shopfront.test")

	resp, _ := env.api(t, http.MethodPatch, "/users/u-bob/deactivate", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.api(t, http.MethodGet, "/auth/me", bob.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, out := env.api(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "bob@shopfront.test", "password": demoPassword})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Account is deactivated", out.Message)

	resp, _ = env.api(t, http.MethodPatch, "/users/u-admin/deactivate", admin.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIUserRoleChange(t *testing.T) {
	env := newEnv(t)
	admin := env.login(t, "admin@shopfront.test").AccessToken
	bob := env.login(t, "bob@shopfront.test").AccessToken

	resp, _ := env.api(t, http.MethodGet, "/admin/stats", bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = env.api(t, http.MethodPatch, "/users/u-alice/role", bob, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, out := env.api(t, http.MethodPatch, "/users/u-bob/role", admin, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Message)
	// the role is read from the account on every request
	resp, _ = env.api(t, http.MethodGet, "/admin/stats", bob, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.api(t, http.MethodPatch, "/users/u-bob/role", admin, map[string]string{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = env.api(t, http.MethodPatch, "/users/u-admin/role", admin, map[string]string{"role": "customer"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIProductListingPagination(t *testing.T) {
	env := newEnv(t)
	resp, out := env.api(t, http.MethodGet, "/products?per_page=2&page=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Products   []map[string]any `json:"products"`
		Pagination apiPagination    `json:"pagination"`
	}
	out.decode(t, &page)
	assert.Len(t, page.Products, 2)
	assert.Equal(t, 6, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.Pages)
	assert.True(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)

	resp, out = env.api(t, http.MethodGet, "/products?min_price=150&max_price=250", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out.decode(t, &page)
	assert.Len(t, page.Products, 2) // NES and SNES at 199.00

	resp, _ = env.api(t, http.MethodGet, "/products?min_price=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.api(t, http.MethodGet, "/products/missing-1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIAdminCatalogManagement(t *testing.T) {
	env := newEnv(t)
	admin := env.login(t, "admin@shopfront.test").AccessToken
	alice := env.login(t, "alice@shopfront.test").AccessToken

	resp, _ := env.api(t, http.MethodPost, "/categories", alice, map[string]string{"name": "Cameras"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, out := env.api(t, http.MethodPost, "/categories", admin, map[string]string{"name": "Cameras"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)
	var cat struct {
		ID string `json:"id"`
	}
	out.decode(t, &cat)

	resp, out = env.api(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Polaroid SX-70", "price": "250.00", "stock": 4, "sku": "CAM-SX70", "category_id": cat.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)
	var p struct {
		ID string `json:"id"`
	}
	out.decode(t, &p)

	resp, _ = env.api(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Copy", "price": "1.00", "stock": 1, "sku": "CAM-SX70", "category_id": cat.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.api(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Negative", "price": "-1.00", "stock": 1, "sku": "NEG-1", "category_id": cat.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// a category holding products cannot be deleted
	resp, _ = env.api(t, http.MethodDelete, "/categories/"+cat.ID, admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, out = env.api(t, http.MethodPut, "/products/"+p.ID, admin, map[string]any{"price": "199.99"})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Message)
	var upd struct {
		Price decimal.Decimal `json:"price"`
	}
	out.decode(t, &upd)
	assert.True(t, upd.Price.Equal(decimal.RequireFromString("199.99")))

	resp, out = env.api(t, http.MethodGet, "/products/"+p.ID+"/availability", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var a struct {
		Status string `json:"status"`
	}
	out.decode(t, &a)
	assert.Equal(t, "LOW_STOCK", a.Status)

	resp, _ = env.api(t, http.MethodDelete, "/products/"+p.ID, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.api(t, http.MethodDelete, "/categories/"+cat.ID, admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIAdminInventory(t *testing.T) {
	env := newEnv(t)
	admin := env.login(t, "admin@shopfront.test").AccessToken
	alice := env.login(t, "alice@shopfront.test").AccessToken

	resp, _ := env.api(t, http.MethodGet, "/admin/inventory", alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, out := env.api(t, http.MethodGet, "/admin/inventory?low_stock_threshold=3", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Message)
	var rep struct {
		Threshold int `json:"low_stock_threshold"`
		Products  []struct {
			ID    string `json:"id"`
			Stock int    `json:"stock"`
		} `json:"products"`
		LowStock []struct {
			ID string `json:"id"`
		} `json:"low_stock"`
	}
	out.decode(t, &rep)
	assert.Equal(t, 3, rep.Threshold)
	assert.Len(t, rep.Products, 6)
	require.Len(t, rep.LowStock, 2)
	assert.Equal(t, "radio-zenith-500", rep.LowStock[0].ID)
	assert.Equal(t, "radio-001", rep.LowStock[1].ID)

	resp, _ = env.api(t, http.MethodGet, "/admin/inventory?low_stock_threshold=-1", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = env.api(t, http.MethodPut, "/admin/inventory/radio-zenith-500", admin, map[string]int{"stock": 12})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Message)
	avail, err := env.reg.Inventory.CheckAvailability("radio-zenith-500")
	require.NoError(t, err)
	assert.Equal(t, 12, avail.Qty)

	resp, _ = env.api(t, http.MethodPut, "/admin/inventory/radio-zenith-500", admin, map[string]int{"stock": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = env.api(t, http.MethodPut, "/admin/inventory/no-such", admin, map[string]int{"stock": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPICheckoutFlow(t *testing.T) {
	env := newEnv(t)
	_, err := env.db.Exec(`UPDATE products SET price = '10.00', stock = 5 WHERE id = 'nes-001'`)
	require.NoError(t, err)
	alice := env.login(t, "alice@shopfront.test").AccessToken

	resp, out := env.api(t, http.MethodPost, "/orders", alice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out.Message, "empty")

	resp, _ = env.api(t, http.MethodPost, "/cart/items", alice, map[string]any{"product_id": "nes-001", "quantity": 6})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = env.api(t, http.MethodPost, "/cart/items", alice, map[string]any{"product_id": "nes-001", "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)

	resp, out = env.api(t, http.MethodGet, "/cart", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cart struct {
		Items []map[string]any `json:"items"`
		Total decimal.Decimal  `json:"total"`
	}
	out.decode(t, &cart)
	assert.Len(t, cart.Items, 1)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("20.00")))

	resp, out = env.api(t, http.MethodPost, "/orders", alice, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)
	var o apiOrder
	out.decode(t, &o)
	assert.Equal(t, "pending", o.Status)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("20.00")))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)

	avail, err := env.reg.Inventory.CheckAvailability("nes-001")
	require.NoError(t, err)
	assert.Equal(t, 3, avail.Qty)
	assert.Equal(t, 0, env.reg.Cart.Count("u-alice"))

	// another customer cannot read it
	bob := env.login(t, "bob@shopfront.test").AccessToken
	resp, _ = env.api(t, http.MethodGet, "/orders/"+o.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, out = env.api(t, http.MethodGet, "/orders", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine struct {
		Orders     []apiOrder    `json:"orders"`
		Pagination apiPagination `json:"pagination"`
	}
	out.decode(t, &mine)
	assert.Equal(t, 1, mine.Pagination.Total)
}

func TestAPIOrderLifecycle(t *testing.T) {
	env := newEnv(t)
	alice := env.login(t, "alice@shopfront.test").AccessToken
	admin := env.login(t, "admin@shopfront.test").AccessToken

	place := func() apiOrder {
		resp, out := env.api(t, http.MethodPost, "/cart/items", alice, map[string]any{"product_id": "snes-001", "quantity": 3})
		require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)
		resp, out = env.api(t, http.MethodPost, "/orders", alice, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)
		var o apiOrder
		out.decode(t, &o)
		return o
	}

	o := place()
	var resp *http.Response
	var out apiReply
	for _, st := range []string{"processing", "delivered"} {
		resp, out = env.api(t, http.MethodPut, "/orders/"+o.ID+"/status", admin, map[string]string{"status": st})
		require.Equal(t, http.StatusOK, resp.StatusCode, out.Message)
	}
	resp, _ = env.api(t, http.MethodPut, "/orders/"+o.ID+"/status", admin, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "delivered cannot move back to shipped")
	resp, _ = env.api(t, http.MethodPost, "/admin/orders/"+o.ID+"/cancel", admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.api(t, http.MethodPut, "/orders/"+o.ID+"/status", admin, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// cancelling puts the stock back
	o2 := place()
	before, err := env.reg.Inventory.CheckAvailability("snes-001")
	require.NoError(t, err)
	resp, out = env.api(t, http.MethodPost, "/admin/orders/"+o2.ID+"/cancel", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Message)
	var cancelled apiOrder
	out.decode(t, &cancelled)
	assert.Equal(t, "cancelled", cancelled.Status)
	after, err := env.reg.Inventory.CheckAvailability("snes-001")
	require.NoError(t, err)
	assert.Equal(t, before.Qty+3, after.Qty)

	resp, out = env.api(t, http.MethodGet, "/admin/orders?status=cancelled", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all struct {
		Orders []apiOrder `json:"orders"`
	}
	out.decode(t, &all)
	require.Len(t, all.Orders, 1)
	assert.Equal(t, o2.ID, all.Orders[0].ID)

	resp, out = env.api(t, http.MethodGet, "/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st struct {
		TotalOrders    int             `json:"total_orders"`
		Revenue        decimal.Decimal `json:"revenue"`
		OrdersByStatus map[string]int  `json:"orders_by_status"`
	}
	out.decode(t, &st)
	assert.Equal(t, 2, st.TotalOrders)
	assert.True(t, st.Revenue.Equal(decimal.RequireFromString("597.00")), "revenue %s", st.Revenue)
	assert.Equal(t, 1, st.OrdersByStatus["delivered"])
	assert.Equal(t, 1, st.OrdersByStatus["cancelled"])
}

func TestAPIReviewsNeedPurchase(t *testing.T) {
	env := newEnv(t)
	alice := env.login(t, "alice@shopfront.test").AccessToken
	bob := env.login(t, "bob@shopfront.test").AccessToken
	review := map[string]any{"rating": 5, "comment": "Works great"}

	resp, out := env.api(t, http.MethodPost, "/products/gbc-001/reviews", alice, review)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You can only review products you have purchased", out.Message)

	_, err := env.reg.Cart.Add("u-alice", "gbc-001", 1)
	require.NoError(t, err)
	_, err = env.reg.Orders.Create("u-alice")
	require.NoError(t, err)

	resp, out = env.api(t, http.MethodPost, "/products/gbc-001/reviews", alice, review)
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Message)
	var rv struct {
		ID string `json:"id"`
	}
	out.decode(t, &rv)

	resp, _ = env.api(t, http.MethodPost, "/products/gbc-001/reviews", alice, review)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.api(t, http.MethodPost, "/products/gbc-001/reviews", alice, map[string]any{"rating": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = env.api(t, http.MethodGet, "/products/gbc-001", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		AvgRating   float64 `json:"avg_rating"`
		ReviewCount int     `json:"review_count"`
	}
	out.decode(t, &detail)
	assert.Equal(t, 5.0, detail.AvgRating)
	assert.Equal(t, 1, detail.ReviewCount)

	resp, _ = env.api(t, http.MethodDelete, "/products/gbc-001/reviews/"+rv.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = env.api(t, http.MethodDelete, "/products/gbc-001/reviews/"+rv.ID, alice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIWishlist(t *testing.T) {
	env := newEnv(t)
	alice := env.login(t, "alice@shopfront.test").AccessToken

	resp, _ := env.api(t, http.MethodPost, "/wishlist", alice, map[string]string{"product_id": "walkman-001"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = env.api(t, http.MethodPost, "/wishlist", alice, map[string]string{"product_id": "walkman-001"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.api(t, http.MethodPost, "/wishlist", alice, map[string]string{"product_id": "no-such"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, out := env.api(t, http.MethodGet, "/wishlist", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []map[string]any
	out.decode(t, &items)
	assert.Len(t, items, 1)

	resp, _ = env.api(t, http.MethodDelete, "/wishlist/walkman-001", alice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.api(t, http.MethodDelete, "/wishlist/walkman-001", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIPasswordReset(t *testing.T) {
	env := newEnv(t)
	resp, out := env.api(t, http.MethodPost, "/auth/password-reset", "", map[string]string{"email": "ghost@shopfront.test"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	unknownMsg := out.Message

	resp, out = env.api(t, http.MethodPost, "/auth/password-reset", "", map[string]string{"email": "alice@shopfront.test"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, unknownMsg, out.Message, "responses must not reveal which emails exist")
}
