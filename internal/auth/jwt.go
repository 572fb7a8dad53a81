package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// maxJWTLen bounds the token length before any parsing happens, so oversized
// credentials cannot force large base64/JSON allocations.
const maxJWTLen = 16 * 1024

type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) JWTVerifier {
	return JWTVerifier{secret: []byte(secret)}
}

// Verify accepts HS256 tokens signed with the shared secret. Expiry is
// required: signaling credentials are meant to be short-lived.
func (v JWTVerifier) Verify(token string) error {
	if token == "" || len(token) > maxJWTLen || len(v.secret) == 0 {
		return ErrInvalidCredentials
	}

	_, err := jwt.Parse(token,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return errors.Join(ErrInvalidCredentials, err)
	}
	return nil
}
