package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func jwksFor(kid string, pub *rsa.PublicKey) jwksDocument {
	return jwksDocument{Keys: []jwk{{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
}

func TestJWKSCacheFetch(t *testing.T) {
	key := generateKey(t)

	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		json.NewEncoder(w).Encode(jwksFor("kid-1", &key.PublicKey))
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, time.Hour, time.Minute)

	got, err := cache.Key("kid-1")
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if got.N.Cmp(key.PublicKey.N) != 0 || got.E != key.PublicKey.E {
		t.Error("Key() returned a different key than the endpoint served")
	}

	// A second lookup within the refresh window is served from cache.
	if _, err := cache.Key("kid-1"); err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("endpoint fetched %d times, want 1", n)
	}
}

func TestJWKSCacheUnknownKid(t *testing.T) {
	key := generateKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jwksFor("kid-1", &key.PublicKey))
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, time.Hour, time.Minute)

	if _, err := cache.Key("kid-other"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Key() error = %v, want ErrKeyNotFound", err)
	}
}

func TestJWKSCacheRefetchRateLimit(t *testing.T) {
	key := generateKey(t)

	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		json.NewEncoder(w).Encode(jwksFor("kid-1", &key.PublicKey))
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, time.Hour, time.Minute)

	// Repeated unknown-kid lookups must not hammer the endpoint.
	for i := 0; i < 5; i++ {
		cache.Key("kid-bogus")
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("endpoint fetched %d times for repeated bad kids, want 1", n)
	}
}

func TestJWKSCacheEndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, time.Hour, time.Minute)

	if _, err := cache.Key("kid-1"); err == nil {
		t.Error("Key() error = nil, want fetch failure surfaced")
	}
}

func TestParseRSAKeyRejectsBadEncoding(t *testing.T) {
	if _, err := parseRSAKey(jwk{Kty: "RSA", Kid: "k", N: "!!!", E: "AQAB"}); err == nil {
		t.Error("parseRSAKey() accepted a non-base64url modulus")
	}
}
