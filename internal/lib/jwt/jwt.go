package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoOwner = errors.New("token has no uid claim")

// NewToken issues an HS256 token for ownerID. The service itself only
// verifies tokens; issuing is used by tooling and tests.
func NewToken(ownerID, secret string, duration time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = ownerID
	claims["exp"] = time.Now().Add(duration).Unix()

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// OwnerID returns the uid claim of a verified token.
func OwnerID(token *jwt.Token) (string, error) {
	if token == nil {
		return "", ErrNoOwner
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoOwner
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", ErrNoOwner
	}

	return uid, nil
}
