package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)

	token, exp, err := m.GenerateJWT("user-1", "ada@example.com", "sess-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	claims, err := m.ValidateJWT(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ClaimString(claims, "sub"))
	assert.Equal(t, "sess-1", ClaimString(claims, "sid"))
	assert.Equal(t, "ada@example.com", ClaimString(claims, "email"))
}

func TestValidateRejectsWrongType(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)
	refresh, _, err := m.GenerateRefreshToken("user-1", "sess-1")
	require.NoError(t, err)

	_, err = m.ValidateJWT(refresh, TokenTypeAccess)
	assert.ErrorContains(t, err, "expected access token")

	_, err = m.ValidateJWT(refresh, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewTokenManager("secret", time.Minute, time.Hour)
	token, _, err := m.GenerateJWT("user-1", "a@b.c", "sess-1")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.ValidateJWT(token, TokenTypeAccess)
	assert.Error(t, err)

	other := NewTokenManager("other-secret", time.Minute, time.Hour)
	_, err = other.ValidateJWT(token, TokenTypeAccess)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, ValidatePassword(hash, "hunter22"))
	assert.False(t, ValidatePassword(hash, "hunter23"))
}

func TestQueryContextsCarryBudgets(t *testing.T) {
	for name, tc := range map[string]struct {
		get  func(context.Context) (context.Context, context.CancelFunc)
		want time.Duration
	}{
		"fast":    {GetFastQueryContext, FastQueryTimeout},
		"default": {GetDefaultQueryContext, DefaultQueryTimeout},
		"slow":    {GetSlowQueryContext, SlowQueryTimeout},
	} {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			ctx, cancel := tc.get(context.Background())
			defer cancel()
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.WithinDuration(t, start.Add(tc.want), deadline, time.Second)
		})
	}

	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := GetFastQueryContext(parent)
	defer cancel()
	cancelParent()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
