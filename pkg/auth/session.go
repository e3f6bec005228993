package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSubject is returned for a valid token without a "sub" claim.
var ErrMissingSubject = errors.New("token has no subject")

// SessionVerifier validates session tokens issued by the auth provider and
// returns the subject identifier they carry.
type SessionVerifier struct {
	keys       *KeySet
	hmacSecret []byte
	issuer     string
}

func NewSessionVerifier(keys *KeySet, hmacSecret, issuer string) *SessionVerifier {
	v := &SessionVerifier{keys: keys, issuer: issuer}
	if hmacSecret != "" {
		v.hmacSecret = []byte(hmacSecret)
	}
	return v
}

func (v *SessionVerifier) Verify(ctx context.Context, raw string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "HS256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return v.key(ctx, t)
	}, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", ErrMissingSubject
	}
	return sub, nil
}

func (v *SessionVerifier) key(ctx context.Context, token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.hmacSecret == nil {
			return nil, fmt.Errorf("HS256 token received but AUTH_JWT_SECRET is not configured")
		}
		return v.hmacSecret, nil
	case *jwt.SigningMethodRSA:
		if !v.keys.Configured() {
			return nil, fmt.Errorf("RS256 token received but AUTH_JWKS_URL is not configured")
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("kid header not found")
		}
		return v.keys.Key(ctx, kid)
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}
