package session

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(testSecret, 30*24*time.Hour, 24*time.Hour, false)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := testManager(t)

	token, err := m.Issue("user-1", "ADMIN")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "ADMIN", claims.Role)
	require.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 5*time.Second)
	require.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := testManager(t)

	for _, token := range []string{"", "not-a-token", "aGVsbG8"} {
		_, err := m.Verify(token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	m := testManager(t)

	token, err := m.Issue("user-1", "USER")
	require.NoError(t, err)

	// Flip a character inside the ciphertext.
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}
	_, err = m.Verify(string(tampered))
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	m := testManager(t)
	other := NewManager("a-completely-different-secret", 30*24*time.Hour, 24*time.Hour, false)

	token, err := other.Issue("user-1", "USER")
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyDoesNotLeakInnerToken(t *testing.T) {
	m := testManager(t)

	token, err := m.Issue("user-1", "USER")
	require.NoError(t, err)
	// The outer layer must hide the JWS structure entirely.
	require.NotContains(t, token, ".")
}

func TestSlidingExpiration(t *testing.T) {
	m := testManager(t)
	start := time.Now()
	m.now = func() time.Time { return start }

	token, err := m.Issue("user-1", "USER")
	require.NoError(t, err)

	t.Run("fresh token is returned unchanged", func(t *testing.T) {
		m.now = func() time.Time { return start.Add(23 * time.Hour) }
		claims, err := m.Verify(token)
		require.NoError(t, err)

		_, reissued, err := m.Refresh(claims)
		require.NoError(t, err)
		require.False(t, reissued)
	})

	t.Run("stale token is reissued with identical claims", func(t *testing.T) {
		m.now = func() time.Time { return start.Add(25 * time.Hour) }
		claims, err := m.Verify(token)
		require.NoError(t, err)

		fresh, reissued, err := m.Refresh(claims)
		require.NoError(t, err)
		require.True(t, reissued)

		freshClaims, err := m.Verify(fresh)
		require.NoError(t, err)
		require.Equal(t, claims.Subject, freshClaims.Subject)
		require.Equal(t, claims.Role, freshClaims.Role)
		require.True(t, freshClaims.IssuedAt.Time.After(claims.IssuedAt.Time))
	})

	t.Run("token past max age is rejected", func(t *testing.T) {
		m.now = func() time.Time { return start.Add(31 * 24 * time.Hour) }
		_, err := m.Verify(token)
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestRefreshMap(t *testing.T) {
	m := testManager(t)
	start := time.Now()
	m.now = func() time.Time { return start.Add(25 * time.Hour) }

	fresh, reissued, err := m.RefreshMap(map[string]interface{}{
		"sub":  "user-1",
		"role": "ADMIN",
		"iat":  float64(start.Unix()),
	})
	require.NoError(t, err)
	require.True(t, reissued)

	claims, err := m.Verify(fresh)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "ADMIN", claims.Role)

	_, reissued, err = m.RefreshMap(map[string]interface{}{"role": "ADMIN"})
	require.NoError(t, err)
	require.False(t, reissued, "claims without sub/iat are left alone")
}

func TestCookies(t *testing.T) {
	m := NewManager(testSecret, 30*24*time.Hour, 24*time.Hour, true)

	c := m.Cookie("token-value")
	require.Equal(t, CookieName, c.Name)
	require.Equal(t, "token-value", c.Value)
	require.Equal(t, "/", c.Path)
	require.True(t, c.HTTPOnly)
	require.True(t, c.Secure)
	require.Equal(t, fiber.CookieSameSiteLaxMode, c.SameSite)

	cleared := m.ClearCookie(CookieName)
	require.Empty(t, cleared.Value)
	require.True(t, cleared.Expires.Before(time.Now()))
}
