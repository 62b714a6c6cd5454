package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer   = "http://localhost:8080/realms/nekazari"
	testAudience = "account"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func validClaims() *Claims {
	return &Claims{
		Email:       "admin@farm.example",
		TenantID:    "farm-1",
		RealmAccess: RealmAccess{Roles: []string{"TenantAdmin"}},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifierVerify(t *testing.T) {
	key := generateKey(t)
	verifier := NewVerifierWithKeys(StaticKeys{"kid-1": &key.PublicKey}, testIssuer, testAudience)

	claims, err := verifier.Verify(signToken(t, key, "kid-1", validClaims()))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Email != "admin@farm.example" || claims.TenantID != "farm-1" {
		t.Errorf("Verify() claims = %+v", claims)
	}
	if !claims.HasRole("TenantAdmin", "PlatformAdmin") {
		t.Error("HasRole() = false for TenantAdmin holder")
	}
	if claims.HasRole("PlatformAdmin") {
		t.Error("HasRole(PlatformAdmin) = true, role not granted")
	}
}

func TestVerifierRejections(t *testing.T) {
	key := generateKey(t)
	foreign := generateKey(t)
	verifier := NewVerifierWithKeys(StaticKeys{"kid-1": &key.PublicKey}, testIssuer, testAudience)

	t.Run("foreign signing key", func(t *testing.T) {
		token := signToken(t, foreign, "kid-1", validClaims())
		if _, err := verifier.Verify(token); err == nil {
			t.Error("Verify() accepted a token signed by a foreign key")
		}
	})

	t.Run("unknown kid", func(t *testing.T) {
		token := signToken(t, key, "kid-2", validClaims())
		if _, err := verifier.Verify(token); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("Verify() error = %v, want ErrKeyNotFound", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		c := validClaims()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		if _, err := verifier.Verify(signToken(t, key, "kid-1", c)); err == nil {
			t.Error("Verify() accepted an expired token")
		}
	})

	t.Run("missing expiry", func(t *testing.T) {
		c := validClaims()
		c.ExpiresAt = nil
		if _, err := verifier.Verify(signToken(t, key, "kid-1", c)); err == nil {
			t.Error("Verify() accepted a token without an expiry")
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := validClaims()
		c.Issuer = "http://evil.example/realms/nekazari"
		if _, err := verifier.Verify(signToken(t, key, "kid-1", c)); err == nil {
			t.Error("Verify() accepted a token from the wrong issuer")
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := validClaims()
		c.Audience = jwt.ClaimStrings{"someone-else"}
		if _, err := verifier.Verify(signToken(t, key, "kid-1", c)); err == nil {
			t.Error("Verify() accepted a token for the wrong audience")
		}
	})

	t.Run("hmac token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
		token.Header["kid"] = "kid-1"
		signed, err := token.SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("SignedString: %v", err)
		}
		if _, err := verifier.Verify(signed); err == nil {
			t.Error("Verify() accepted an HMAC-signed token")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := verifier.Verify("not.a.token"); err == nil {
			t.Error("Verify() accepted garbage input")
		}
	})
}

func TestHasRoleEmptySet(t *testing.T) {
	c := &Claims{}
	if !c.HasRole() {
		t.Error("HasRole() with no required roles should allow")
	}
}
