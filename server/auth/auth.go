package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt"
	"github.com/nusely/CFLSMS/server/auth/key"
	"github.com/nusely/CFLSMS/server/models"
	"golang.org/x/crypto/bcrypt"
)

type CflsmsTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

func (claims *CflsmsTokenClaims) IsSuperadmin() bool {
	return claims.Role == models.SUPERADMIN_ROLE
}

// CanManageList reports whether the claims holder may modify the given
// contact list. Global lists belong to superadmins; personal lists to
// their owner.
func CanManageList(claims *CflsmsTokenClaims, list *models.ContactList, userID uint) bool {
	if list.IsGlobal {
		return claims.IsSuperadmin()
	}

	return list.OwnerUserID == userID
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func EncodeJWT(claims CflsmsTokenClaims, keyPair *key.KeyPair) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod("RS256"), claims)

	tokenString, err := token.SignedString(keyPair.PrivateKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func DecodeJWT(tokenString string, keyPair *key.KeyPair) (*CflsmsTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CflsmsTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return keyPair.PublicKey, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid jwt: %v", err)
	}

	tokenClaims, ok := token.Claims.(*CflsmsTokenClaims)
	if !ok {
		return nil, fmt.Errorf("unable to assert token.Claims to CflsmsTokenClaims")
	}

	return tokenClaims, nil
}
