package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *Codec {
	return &Codec{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	exp := time.Now().Add(AccessTTL)

	token, err := c.IssueAccess(42, exp)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := c.ParseAccess(token)
	require.NoError(t, err)

	id, err := UserID(claims.RegisteredClaims)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
	require.NotNil(t, claims.IssuedAt)
}

func TestCodec_RefreshRoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	exp := time.Now().Add(RefreshTTL)

	token, err := c.IssueRefresh(7, exp)
	require.NoError(t, err)

	claims, err := c.ParseRefresh(token)
	require.NoError(t, err)

	id, err := UserID(claims.RegisteredClaims)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.NotEmpty(t, claims.ID, "refresh token should carry a jti")
}

func TestCodec_KindsUseSeparateSecrets(t *testing.T) {
	t.Parallel()

	c := newTestCodec()

	access, err := c.IssueAccess(1, time.Now().Add(AccessTTL))
	require.NoError(t, err)
	refresh, err := c.IssueRefresh(1, time.Now().Add(RefreshTTL))
	require.NoError(t, err)

	_, err = c.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = c.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestCodec_ExpiredToken(t *testing.T) {
	t.Parallel()

	c := newTestCodec()

	token, err := c.IssueAccess(1, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = c.ParseAccess(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestCodec_MalformedToken(t *testing.T) {
	t.Parallel()

	c := newTestCodec()

	_, err := c.ParseAccess("not-a-token")
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = c.ParseRefresh("")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestCodec_RotationProducesDistinctTokens(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	exp := time.Now().Add(RefreshTTL)

	first, err := c.IssueRefresh(3, exp)
	require.NoError(t, err)
	second, err := c.IssueRefresh(3, exp)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
