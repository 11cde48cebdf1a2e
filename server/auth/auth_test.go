package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/nusely/CFLSMS/server/auth/key"
	"github.com/nusely/CFLSMS/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) *key.KeyPair {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &key.KeyPair{
		Kid:        "test-key-id",
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}
}

func TestEncodeDecodeJWT(t *testing.T) {
	keyPair := testKeyPair(t)

	claims := CflsmsTokenClaims{
		Email: "admin@example.com",
		Role:  models.ADMIN_ROLE,
		StandardClaims: jwt.StandardClaims{
			Subject:   "1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}

	tokenString, err := EncodeJWT(claims, keyPair)
	require.NoError(t, err)

	decoded, err := DecodeJWT(tokenString, keyPair)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", decoded.Email)
	assert.Equal(t, models.ADMIN_ROLE, decoded.Role)
	assert.Equal(t, "1", decoded.Subject)
}

func TestDecodeJWTRejectsExpiredToken(t *testing.T) {
	keyPair := testKeyPair(t)

	claims := CflsmsTokenClaims{
		Email: "admin@example.com",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	}

	tokenString, err := EncodeJWT(claims, keyPair)
	require.NoError(t, err)

	_, err = DecodeJWT(tokenString, keyPair)
	assert.Error(t, err)
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong-pass", hash))
}

func TestCanManageList(t *testing.T) {
	admin := &CflsmsTokenClaims{Role: models.ADMIN_ROLE}
	superadmin := &CflsmsTokenClaims{Role: models.SUPERADMIN_ROLE}

	personal := &models.ContactList{OwnerUserID: 7}
	global := &models.ContactList{IsGlobal: true}

	assert.True(t, CanManageList(admin, personal, 7))
	assert.False(t, CanManageList(admin, personal, 8))

	assert.True(t, CanManageList(superadmin, global, 1))
	assert.False(t, CanManageList(admin, global, 7))
}
