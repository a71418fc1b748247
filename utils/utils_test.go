package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub-pro/eventhub-api/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr("   "))
	require.NotNil(t, StringPtr(" x "))
	assert.Equal(t, "x", *StringPtr(" x "))
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	user := &models.User{ID: 7, Email: "ann@example.com", Role: models.RoleAdmin}

	token, err := GenerateToken(secret, user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "ann@example.com", claims.Email)
}

func TestParseToken_Rejects(t *testing.T) {
	secret := []byte("test-secret")
	user := &models.User{ID: 7, Email: "ann@example.com", Role: models.RoleParticipant}

	expired, err := GenerateToken(secret, user, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherKey, err := GenerateToken([]byte("other"), user, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(secret, otherKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 7, "role": "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(secret, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(secret, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Hello", SanitizePlainText("<b>Hello</b><script>alert(1)</script>"))
	assert.Equal(t, "<b>Bold</b>", SanitizeRichText("<b>Bold</b><script>alert(1)</script>"))
	assert.Nil(t, SanitizeOptional(ptr("<script>x</script>"), false))
	assert.Nil(t, SanitizeOptional(nil, true))
}

func TestTicketQRCode(t *testing.T) {
	png, err := TicketQRCode("eventhub:registration:1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func ptr(s string) *string { return &s }
