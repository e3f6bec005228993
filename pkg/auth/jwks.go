package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// ErrKeyNotFound is returned when no signing key matches a token's kid, even
// after refreshing the key set.
var ErrKeyNotFound = errors.New("signing key not found")

// refreshCooldown bounds how often an unknown kid can trigger a fetch.
const refreshCooldown = time.Minute

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySet caches the auth provider's RSA signing keys, decoded once per fetch.
// Keys rotate by kid: a token signed with a kid the cache has not seen
// triggers a refetch, at most once per refreshCooldown.
type KeySet struct {
	url    string
	client *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewKeySet(jwksURL string, timeout time.Duration) *KeySet {
	return &KeySet{
		url:    jwksURL,
		client: &http.Client{Timeout: timeout},
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// Configured reports whether RS256 tokens can be checked at all.
func (ks *KeySet) Configured() bool {
	return ks != nil && ks.url != ""
}

// Key returns the public key for kid.
func (ks *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key := ks.cached(kid); key != nil {
		return key, nil
	}

	if err := ks.refresh(ctx); err != nil {
		return nil, err
	}

	if key := ks.cached(kid); key != nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (ks *KeySet) cached(kid string) *rsa.PublicKey {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.keys[kid]
}

func (ks *KeySet) refresh(ctx context.Context) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if !ks.fetchedAt.IsZero() && time.Since(ks.fetchedAt) < refreshCooldown {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}
	resp, err := ks.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	ks.keys = keys
	ks.fetchedAt = time.Now()
	return nil
}

func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	exp := new(big.Int).SetBytes(e)
	if len(n) == 0 || !exp.IsInt64() || exp.Int64() < 2 {
		return nil, errors.New("malformed rsa key")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}
