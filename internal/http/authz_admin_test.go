package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// /admin requires the admin role.
func TestAdminGuardRequiresAdmin(t *testing.T) {
	env := newEnv(t)

	anon := env.get(t, "/admin", "")
	assert.Equal(t, http.StatusFound, anon.StatusCode)
	assert.Equal(t, "/login", anon.Header.Get("Location"))

	user := env.get(t, "/admin", env.bindSession(t, "sid-user", "u-alice"))
	assert.Equal(t, http.StatusForbidden, user.StatusCode)

	admin := env.get(t, "/admin", env.bindSession(t, "sid-admin", "u-admin"))
	assert.Equal(t, http.StatusOK, admin.StatusCode)
	assert.Contains(t, body(t, admin), "Revenue")
}

func TestAdminUsersPageActions(t *testing.T) {
	env := newEnv(t)
	sid := env.bindSession(t, "sid-admin", "u-admin")
	csrfTok := env.csrfToken(t)

	page := env.get(t, "/admin/users", sid)
	require.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, body(t, page), "bob@shopfront.test")

	resp := env.postForm(t, "/admin/users/u-bob/active", csrfTok, sid, url.Values{"active": {"false"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	bob, err := env.reg.Users.Get("u-bob")
	require.NoError(t, err)
	assert.False(t, bob.IsActive)

	// an admin cannot remove their own account
	self := env.postForm(t, "/admin/users/u-admin/delete", csrfTok, sid, url.Values{})
	require.Equal(t, http.StatusFound, self.StatusCode)
	_, err = env.reg.Users.Get("u-admin")
	assert.NoError(t, err)

	del := env.postForm(t, "/admin/users/u-bob/delete", csrfTok, sid, url.Values{})
	require.Equal(t, http.StatusFound, del.StatusCode)
	_, err = env.reg.Users.Get("u-bob")
	assert.Error(t, err)
}

func TestAdminOrderStatusPage(t *testing.T) {
	env := newEnv(t)
	_, err := env.reg.Cart.Add("u-alice", "nes-001", 1)
	require.NoError(t, err)
	o, err := env.reg.Orders.Create("u-alice")
	require.NoError(t, err)

	sid := env.bindSession(t, "sid-admin", "u-admin")
	csrfTok := env.csrfToken(t)

	list := env.get(t, "/admin/orders?status=pending", sid)
	require.Equal(t, http.StatusOK, list.StatusCode)
	assert.Contains(t, body(t, list), o.ID)

	resp := env.postForm(t, "/admin/orders/"+o.ID+"/status", csrfTok, sid, url.Values{"status": {"shipped"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	admin, err := env.reg.Users.Get("u-admin")
	require.NoError(t, err)
	got, err := env.reg.Orders.Get(admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "shipped", got.Status)
}
