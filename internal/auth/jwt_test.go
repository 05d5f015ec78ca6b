package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-entropy"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testSecret)
	require.NoError(t, err)
	return s
}

func TestNewTokenService_MissingSecret(t *testing.T) {
	_, err := NewTokenService("")
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	s := newTestTokenService(t)

	before := time.Now()
	token, claims, err := s.Issue("user-1", "angel@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.WithinDuration(t, before.Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	require.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	got, err := s.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "angel@example.com", got.Email)
	require.Equal(t, claims.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestTokenService_Expired(t *testing.T) {
	s := newTestTokenService(t)
	issuedAt := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issuedAt }

	token, _, err := s.Issue("user-1", "angel@example.com")
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(TokenTTL + time.Second) }
	_, err = s.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)

	s.now = func() time.Time { return issuedAt.Add(TokenTTL - time.Second) }
	_, err = s.Verify(token)
	require.NoError(t, err)
}

func TestTokenService_TamperedSignature(t *testing.T) {
	s := newTestTokenService(t)
	token, _, err := s.Issue("user-1", "angel@example.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = s.Verify(tampered)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	s := newTestTokenService(t)
	claims := Claims{
		Email: "angel@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	t.Run("other secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("someone-else"))
		require.NoError(t, err)
		_, err = s.Verify(token)
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = s.Verify(token)
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = s.Verify(token)
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Verify("not.a.token")
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("missing subject", func(t *testing.T) {
		noSub := claims
		noSub.Subject = ""
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noSub).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = s.Verify(token)
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("missing expiry", func(t *testing.T) {
		noExp := claims
		noExp.ExpiresAt = nil
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = s.Verify(token)
		require.ErrorIs(t, err, ErrTokenMalformed)
	})
}
