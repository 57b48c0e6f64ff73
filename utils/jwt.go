package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	UserID    string `json:"sub"`
	Username  string `json:"name"`
	Role      string `json:"role"`
	IsRefresh bool   `json:"isRefresh"`
	jwt.RegisteredClaims
}

// ParseJWT verifies an RSA-signed token against the store, selecting the key
// by the kid header. The auth service mints tokens; this server only checks.
func ParseJWT(store *PublicKeyStore, tokenString string) (*CustomClaims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &CustomClaims{})
	if err != nil {
		return nil, err
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, errors.New("kid not found in token header")
	}

	pubKey, err := store.GetKey(kid)
	if err != nil {
		return nil, err
	}

	parsedToken, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return pubKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := parsedToken.Claims.(*CustomClaims); ok && parsedToken.Valid {
		if claims.IsRefresh {
			return nil, errors.New("refresh token cannot be used for access")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
