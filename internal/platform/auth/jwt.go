package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"agrihub/internal/platform/config"
)

type RealmAccess struct {
	Roles []string `json:"roles"`
}

type Claims struct {
	Email       string      `json:"email"`
	TenantID    string      `json:"tenant_id"`
	RealmAccess RealmAccess `json:"realm_access"`
	jwt.RegisteredClaims
}

func (c *Claims) Roles() []string {
	return c.RealmAccess.Roles
}

// HasRole reports whether the claims carry at least one of the given roles.
// An empty required set allows any authenticated caller.
func (c *Claims) HasRole(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		for _, have := range c.RealmAccess.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Verifier validates bearer tokens issued by the configured identity
// provider. It is a pure function of (token, key set, clock); it never
// issues tokens.
type Verifier struct {
	keys     KeyProvider
	issuer   string
	audience string
}

func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		keys:     NewJWKSCache(cfg.JWKSURL(), cfg.JWKSRefresh, cfg.JWKSFetchLimit),
		issuer:   cfg.Issuer(),
		audience: cfg.Audience,
	}
}

// NewVerifierWithKeys builds a verifier over a fixed key provider.
func NewVerifierWithKeys(keys KeyProvider, issuer, audience string) *Verifier {
	return &Verifier{keys: keys, issuer: issuer, audience: audience}
}

func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		kid, _ := token.Header["kid"].(string)
		return v.keys.Key(kid)
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
