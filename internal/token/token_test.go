package token

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("s3cret", 15*time.Minute, 24*time.Hour)
	pair, err := iss.Issue("u-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 900, pair.ExpiresIn)

	c, err := iss.Parse(pair.AccessToken, Access)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.Subject)
	assert.Equal(t, "admin", c.Role)
	assert.NotEmpty(t, c.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), c.Expiry(), 5*time.Second)

	_, err = iss.Parse(pair.AccessToken, Refresh)
	assert.ErrorIs(t, err, ErrWrongKind)
	_, err = iss.Parse(pair.RefreshToken, Refresh)
	assert.NoError(t, err)
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	iss := NewIssuer("s3cret", time.Minute, time.Hour)
	other := NewIssuer("different", time.Minute, time.Hour)
	pair, err := other.Issue("u-1", "customer")
	require.NoError(t, err)
	_, err = iss.Parse(pair.AccessToken, Access)
	assert.ErrorIs(t, err, ErrInvalid)

	iss.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	stale, err := iss.Issue("u-1", "customer")
	require.NoError(t, err)
	iss.now = time.Now
	_, err = iss.Parse(stale.AccessToken, Access)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = iss.Parse("garbage", Access)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMemoryBlocklist(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBlocklist()
	now := time.Now()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Revoke(ctx, "jti-1", now.Add(time.Minute)))
	revoked, err := b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = b.IsRevoked(ctx, "jti-2")
	assert.False(t, revoked)

	// once the token would have expired the entry is forgotten
	now = now.Add(2 * time.Minute)
	revoked, _ = b.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
	assert.Empty(t, b.revoked)
}

func TestRedisBlocklist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	b := NewRedisBlocklist(rdb)

	require.NoError(t, b.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err := b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// already expired tokens are not stored
	require.NoError(t, b.Revoke(ctx, "jti-old", time.Now().Add(-time.Second)))
	revoked, err = b.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
