package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskvault-api/internal/config"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters"

// newTestService builds a service with an injected clock so tests can move
// time forward deterministically.
func newTestService(t *testing.T, now time.Time) *hmacJWTService {
	t.Helper()
	return &hmacJWTService{
		signingKey:           []byte(testSecret),
		tokenLifetime:        15 * time.Minute,
		refreshTokenLifetime: 24 * time.Hour,
		timeFunc:             func() time.Time { return now },
		clockSkew:            2 * time.Minute,
	}
}

func TestNewJWTService(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		svc, err := NewJWTService(config.AuthConfig{
			JWTSecret:                   testSecret,
			TokenLifetimeMinutes:        15,
			RefreshTokenLifetimeMinutes: 1440,
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("secret too short", func(t *testing.T) {
		_, err := NewJWTService(config.AuthConfig{
			JWTSecret:                   "short",
			TokenLifetimeMinutes:        15,
			RefreshTokenLifetimeMinutes: 1440,
		})
		assert.Error(t, err)
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)
	userID := uuid.New()

	tokenString, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.ValidateToken(ctx, tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, tokenTypeAccess, claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestValidateToken_Expired(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, issued)
	userID := uuid.New()

	tokenString, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	// Move past the 15-minute lifetime plus the 2-minute skew allowance.
	svc.timeFunc = func() time.Time { return issued.Add(20 * time.Minute) }

	_, err = svc.ValidateToken(ctx, tokenString)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WithinClockSkew(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, issued)
	userID := uuid.New()

	tokenString, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	// One minute past expiry is inside the 2-minute skew window.
	svc.timeFunc = func() time.Time { return issued.Add(16 * time.Minute) }

	_, err = svc.ValidateToken(ctx, tokenString)
	assert.NoError(t, err)
}

func TestValidateToken_Malformed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Now())

	_, err := svc.ValidateToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_MissingTimeClaims(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)
	userID := uuid.New()

	sign := func(t *testing.T, claims jwt.MapClaims) string {
		t.Helper()
		tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte(testSecret))
		require.NoError(t, err)
		return tokenString
	}

	t.Run("no expiry claim", func(t *testing.T) {
		tokenString := sign(t, jwt.MapClaims{
			"uid":  userID.String(),
			"type": tokenTypeAccess,
			"sub":  userID.String(),
			"iat":  jwt.NewNumericDate(now),
		})

		_, err := svc.ValidateToken(ctx, tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no issued-at claim", func(t *testing.T) {
		tokenString := sign(t, jwt.MapClaims{
			"uid":  userID.String(),
			"type": tokenTypeAccess,
			"sub":  userID.String(),
			"exp":  jwt.NewNumericDate(now.Add(15 * time.Minute)),
		})

		_, err := svc.ValidateToken(ctx, tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateToken_WrongSigningKey(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	svc := newTestService(t, now)
	userID := uuid.New()

	tokenString, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	other := newTestService(t, now)
	other.signingKey = []byte("a-completely-different-signing-key-of-32-chars")

	_, err = other.ValidateToken(ctx, tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Now())
	userID := uuid.New()

	refreshToken, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateRefreshToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("valid refresh token", func(t *testing.T) {
		svc := newTestService(t, now)
		refreshToken, err := svc.GenerateRefreshToken(ctx, userID)
		require.NoError(t, err)

		claims, err := svc.ValidateRefreshToken(ctx, refreshToken)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, tokenTypeRefresh, claims.TokenType)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		svc := newTestService(t, now)
		refreshToken, err := svc.GenerateRefreshToken(ctx, userID)
		require.NoError(t, err)

		svc.timeFunc = func() time.Time { return now.Add(25 * time.Hour) }

		_, err = svc.ValidateRefreshToken(ctx, refreshToken)
		assert.ErrorIs(t, err, ErrExpiredRefreshToken)
	})

	t.Run("access token rejected", func(t *testing.T) {
		svc := newTestService(t, now)
		accessToken, err := svc.GenerateToken(ctx, userID)
		require.NoError(t, err)

		_, err = svc.ValidateRefreshToken(ctx, accessToken)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("malformed refresh token", func(t *testing.T) {
		svc := newTestService(t, now)
		_, err := svc.ValidateRefreshToken(ctx, "garbage")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestRefreshTokenLifetimeLongerThanAccess(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, now)
	userID := uuid.New()

	accessToken, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	refreshToken, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	// An hour out, the access token is dead but the refresh token survives.
	svc.timeFunc = func() time.Time { return now.Add(time.Hour) }

	_, err = svc.ValidateToken(ctx, accessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = svc.ValidateRefreshToken(ctx, refreshToken)
	assert.NoError(t, err)
}
