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

	"github.com/rs/zerolog/log"
)

// KeyProvider resolves a signing key by its key id. The production
// implementation is JWKSCache; tests inject StaticKeys.
type KeyProvider interface {
	Key(kid string) (*rsa.PublicKey, error)
}

var ErrKeyNotFound = errors.New("signing key not found")

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// JWKSCache fetches the issuer's key set and caches it. Keys are refreshed
// after the refresh interval, and an unknown kid forces a re-fetch, rate
// limited so a flood of bad tokens cannot hammer the issuer.
type JWKSCache struct {
	url        string
	client     *http.Client
	refresh    time.Duration
	fetchLimit time.Duration

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
}

func NewJWKSCache(url string, refresh, fetchLimit time.Duration) *JWKSCache {
	return &JWKSCache{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		refresh:    refresh,
		fetchLimit: fetchLimit,
		keys:       make(map[string]*rsa.PublicKey),
	}
}

func (c *JWKSCache) Key(kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	stale := now.Sub(c.fetchedAt) > c.refresh
	key, ok := c.keys[kid]

	if ok && !stale {
		return key, nil
	}

	// Unknown kid or stale set: re-fetch unless we tried too recently.
	if now.Sub(c.lastAttempt) >= c.fetchLimit {
		c.lastAttempt = now
		if err := c.fetchLocked(); err != nil {
			log.Error().Err(err).Str("url", c.url).Msg("jwks fetch failed")
			if ok {
				// Serve the stale key rather than rejecting everyone.
				return key, nil
			}
			return nil, err
		}
	}

	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

func (c *JWKSCache) fetchLocked() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned HTTP %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := parseRSAKey(k)
		if err != nil {
			log.Warn().Err(err).Str("kid", k.Kid).Msg("skipping unparseable jwk")
			continue
		}
		keys[k.Kid] = pub
	}

	if len(keys) == 0 {
		return errors.New("jwks document contained no usable RSA keys")
	}

	c.keys = keys
	c.fetchedAt = time.Now()
	return nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eb)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("exponent out of range")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(e.Int64()),
	}, nil
}

// StaticKeys is a fixed KeyProvider used in tests and for pinned-key
// deployments.
type StaticKeys map[string]*rsa.PublicKey

func (s StaticKeys) Key(kid string) (*rsa.PublicKey, error) {
	if key, ok := s[kid]; ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}
