package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	AccountID string `json:"sub"`
	jwt.RegisteredClaims
}

// JWTValidator verifies tokens issued by the auth collaborator.
// Supports HS256 (shared secret) and RS256 (public key).
type JWTValidator struct {
	pub    *rsa.PublicKey
	secret []byte
}

func NewJWTValidatorHS256(secret string) (*JWTValidator, error) {
	if secret == "" {
		return nil, errors.New("empty jwt secret")
	}
	return &JWTValidator{secret: []byte(secret)}, nil
}

func NewJWTValidatorRS256(publicKeyPath string) (*JWTValidator, error) {
	b, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("failed to decode public key")
	}
	pubIfc, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := pubIfc.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not rsa public key")
	}
	return &JWTValidator{pub: pub}, nil
}

// Validate parses the token and returns the account id from its
// subject claim.
func (j *JWTValidator) Validate(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if j.secret == nil {
				return nil, errors.New("hmac token rejected")
			}
			return j.secret, nil
		case *jwt.SigningMethodRSA:
			if j.pub == nil {
				return nil, errors.New("rsa token rejected")
			}
			return j.pub, nil
		default:
			return nil, errors.New("unexpected signing method")
		}
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.AccountID == "" {
		return "", errors.New("invalid token")
	}
	return claims.AccountID, nil
}
