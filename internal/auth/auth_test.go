package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/utils"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthorize(t *testing.T) {
	owner := &models.Identity{ID: "u1", Role: models.RoleUser}
	admin := &models.Identity{ID: "root", Role: models.RoleAdmin}

	assert.NoError(t, Authorize(owner, "u1"))
	assert.NoError(t, Authorize(admin, "u1"))

	err := Authorize(owner, "u2")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	err = Authorize(nil, "u1")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier(VerifierConfig{Secret: testSecret})

	tok := sign(t, testSecret, jwt.MapClaims{
		"sub":          "user-123",
		"email":        "ana@example.com",
		"exp":          time.Now().Add(time.Hour).Unix(),
		"app_metadata": map[string]any{"role": "Admin"},
	})

	id, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.ID)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.Equal(t, models.RoleAdmin, id.Role)
}

func TestVerifier_DefaultRole(t *testing.T) {
	v := NewVerifier(VerifierConfig{Secret: testSecret})

	id, err := v.Verify(sign(t, testSecret, jwt.MapClaims{"sub": "user-123"}))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, id.Role)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier(VerifierConfig{Secret: testSecret, Issuer: "https://auth.example", Audience: "authenticated"})

	cases := map[string]struct {
		token string
		want  error
	}{
		"garbage":      {"not-a-token", ErrInvalidToken},
		"wrong secret": {sign(t, "other-secret", jwt.MapClaims{"sub": "u"}), ErrInvalidToken},
		"expired": {sign(t, testSecret, jwt.MapClaims{
			"sub": "u", "exp": time.Now().Add(-time.Minute).Unix(),
		}), ErrInvalidToken},
		"issuer": {sign(t, testSecret, jwt.MapClaims{
			"sub": "u", "iss": "https://evil.example", "aud": "authenticated",
		}), ErrIssuer},
		"audience": {sign(t, testSecret, jwt.MapClaims{
			"sub": "u", "iss": "https://auth.example", "aud": "anon",
		}), ErrAudience},
		"subject": {sign(t, testSecret, jwt.MapClaims{
			"iss": "https://auth.example", "aud": "authenticated",
		}), ErrSubject},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerifier_MissingSecret(t *testing.T) {
	_, err := NewVerifier(VerifierConfig{}).Verify("x.y.z")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
