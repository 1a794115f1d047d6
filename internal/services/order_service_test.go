package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	"shopfront/internal/notify"
	"shopfront/internal/services"
)

func TestOrderCreateSnapshotsCartAndDecrementsStock(t *testing.T) {
	reg, db, rec := newRegistry(t)
	setProduct(t, db, "nes-001", "10.00", 5)

	_, err := reg.Cart.Add("u-alice", "nes-001", 2)
	require.NoError(t, err)

	o, err := reg.Orders.Create("u-alice")
	require.NoError(t, err)
	assert.Equal(t, "pending", o.Status)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("20.00")), "total %s", o.Total)
	assert.Regexp(t, `^pi_sim_[0-9a-f]{24}$`, o.PaymentIntentID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "NES Console", o.Items[0].ProductName)
	assert.True(t, o.Items[0].Price.Equal(decimal.RequireFromString("10.00")))

	assert.Equal(t, 3, stockOf(t, reg, "nes-001"))
	assert.Equal(t, 0, reg.Cart.Count("u-alice"))
	assert.Contains(t, rec.kinds(), notify.KindOrderConfirmation)

	// later price changes do not touch the snapshot
	setProduct(t, db, "nes-001", "99.00", 3)
	got, err := reg.Orders.Get(user(t, reg, "u-alice"), o.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("10.00")))
}

func TestOrderCreateInsufficientStockLeavesNothingBehind(t *testing.T) {
	reg, db, _ := newRegistry(t)
	setProduct(t, db, "nes-001", "10.00", 5)
	setProduct(t, db, "snes-001", "20.00", 5)

	_, err := reg.Cart.Add("u-alice", "nes-001", 1)
	require.NoError(t, err)
	_, err = reg.Cart.Add("u-alice", "snes-001", 2)
	require.NoError(t, err)
	// stock drops after the items were carted
	setProduct(t, db, "snes-001", "20.00", 0)

	_, err = reg.Orders.Create("u-alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 400, apperr.StatusOf(err))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, n)
	assert.Equal(t, 5, stockOf(t, reg, "nes-001"))
	assert.Equal(t, 3, reg.Cart.Count("u-alice"))
}

func TestOrderCreateEmptyCart(t *testing.T) {
	reg, _, _ := newRegistry(t)
	_, err := reg.Orders.Create("u-bob")
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
}

func TestOrderCreateRejectsDeactivatedProduct(t *testing.T) {
	reg, db, _ := newRegistry(t)
	_, err := reg.Cart.Add("u-alice", "gbc-001", 1)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE products SET is_active = 0 WHERE id = 'gbc-001'`)
	require.NoError(t, err)

	_, err = reg.Orders.Create("u-alice")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.StatusOf(err))
}

func TestOrderStatusTransitions(t *testing.T) {
	reg, _, _ := newRegistry(t)
	_, err := reg.Cart.Add("u-alice", "snes-001", 1)
	require.NoError(t, err)
	o, err := reg.Orders.Create("u-alice")
	require.NoError(t, err)

	_, err = reg.Orders.UpdateStatus(o.ID, "pending")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "same state")

	_, err = reg.Orders.UpdateStatus(o.ID, "refunded")
	assert.Equal(t, 400, apperr.StatusOf(err))

	o, err = reg.Orders.UpdateStatus(o.ID, " Processing ")
	require.NoError(t, err)
	assert.Equal(t, "processing", o.Status)

	// skipping ahead is allowed, going back is not
	o, err = reg.Orders.UpdateStatus(o.ID, "delivered")
	require.NoError(t, err)
	_, err = reg.Orders.UpdateStatus(o.ID, "shipped")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, "delivered", o.Status)

	_, err = reg.Orders.Cancel(o.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, 409, apperr.StatusOf(err))

	_, err = reg.Orders.UpdateStatus("missing", "processing")
	assert.Equal(t, 404, apperr.StatusOf(err))
}

func TestOrderCancelRestocks(t *testing.T) {
	reg, db, _ := newRegistry(t)
	setProduct(t, db, "gbc-001", "5.00", 4)
	_, err := reg.Cart.Add("u-bob", "gbc-001", 4)
	require.NoError(t, err)
	o, err := reg.Orders.Create("u-bob")
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, reg, "gbc-001"))

	// cancelling through the status endpoint is the same operation
	o, err = reg.Orders.UpdateStatus(o.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", o.Status)
	assert.Equal(t, 4, stockOf(t, reg, "gbc-001"))

	_, err = reg.Orders.Cancel(o.ID)
	assert.Error(t, err, "a cancelled order cannot be cancelled twice")
	assert.Equal(t, 4, stockOf(t, reg, "gbc-001"))
}

func TestOrderVisibility(t *testing.T) {
	reg, _, _ := newRegistry(t)
	_, err := reg.Cart.Add("u-alice", "gbc-001", 1)
	require.NoError(t, err)
	o, err := reg.Orders.Create("u-alice")
	require.NoError(t, err)

	_, err = reg.Orders.Get(user(t, reg, "u-bob"), o.ID)
	assert.Equal(t, 403, apperr.StatusOf(err))
	_, err = reg.Orders.Get(user(t, reg, "u-admin"), o.ID)
	assert.NoError(t, err)

	mine, pg, err := reg.Orders.ListMine("u-alice", services.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Equal(t, 1, pg.Total)

	none, _, err := reg.Orders.ListMine("u-bob", services.NewPage(1, 10))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, _, err = reg.Orders.ListAll("lost", services.NewPage(1, 10))
	assert.Equal(t, 400, apperr.StatusOf(err))
}

func TestDeleteUserCancelsOpenOrders(t *testing.T) {
	reg, db, _ := newRegistry(t)
	setProduct(t, db, "nes-001", "10.00", 5)
	_, err := reg.Cart.Add("u-bob", "nes-001", 2)
	require.NoError(t, err)
	o, err := reg.Orders.Create("u-bob")
	require.NoError(t, err)

	admin := user(t, reg, "u-admin")
	require.NoError(t, reg.Users.Delete(admin, "u-bob"))
	assert.Equal(t, 5, stockOf(t, reg, "nes-001"))

	got, err := reg.Orders.Get(admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)

	assert.Equal(t, 404, apperr.StatusOf(reg.Users.Delete(admin, "u-bob")))
	assert.Equal(t, 400, apperr.StatusOf(reg.Users.Delete(admin, "u-admin")))
}

func TestOrderConfirmationFailureKeepsOrder(t *testing.T) {
	reg, db, rec := newRegistry(t)
	setProduct(t, db, "nes-001", "10.00", 5)
	// a cart left behind by an account that no longer resolves
	_, err := db.Exec(`PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO cart_items(id, user_id, product_id, quantity, created_at)
		VALUES ('ci-ghost', 'u-ghost', 'nes-001', 1, '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	var o domain.Order
	actions := loggedActions(t, func() {
		o, err = reg.Orders.Create("u-ghost")
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, 4, stockOf(t, reg, "nes-001"))
	assert.Contains(t, actions, "order.confirm.fail")
	assert.NotContains(t, rec.kinds(), notify.KindOrderConfirmation)
}

func TestAdminStats(t *testing.T) {
	reg, db, _ := newRegistry(t)
	setProduct(t, db, "nes-001", "10.00", 10)
	setProduct(t, db, "gbc-001", "2.50", 10)

	_, err := reg.Cart.Add("u-alice", "nes-001", 3)
	require.NoError(t, err)
	_, err = reg.Orders.Create("u-alice")
	require.NoError(t, err)

	_, err = reg.Cart.Add("u-bob", "gbc-001", 2)
	require.NoError(t, err)
	cancelled, err := reg.Orders.Create("u-bob")
	require.NoError(t, err)
	_, err = reg.Orders.Cancel(cancelled.ID)
	require.NoError(t, err)

	st, err := reg.Admin.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalUsers)
	assert.Equal(t, 2, st.TotalOrders)
	assert.True(t, st.Revenue.Equal(decimal.RequireFromString("30.00")), "revenue %s", st.Revenue)
	assert.Equal(t, map[string]int{"pending": 1, "cancelled": 1}, st.OrdersByStatus)
	require.Len(t, st.PopularProducts, 1)
	assert.Equal(t, "nes-001", st.PopularProducts[0].ID)
	assert.Equal(t, 3, st.PopularProducts[0].QuantitySold)
}
