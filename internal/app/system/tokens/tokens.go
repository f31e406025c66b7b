// Package tokens issues and validates the bearer tokens that bind an admin
// to its organization.
//
// Tokens are stateless HS256 JWTs. Nothing is persisted, so a token stays
// valid until it expires even if its organization is renamed or deleted in
// the meantime; the TTL is the only bound on that staleness.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "tenanthub"

// DefaultTTL matches the service's default jwt_expiration.
const DefaultTTL = 30 * time.Minute

var ErrNoSecret = errors.New("token signing secret not provided")

// Identity is what a valid token asserts.
type Identity struct {
	AdminID        string
	OrganizationID string
	Email          string
}

type claims struct {
	AdminID        string `json:"admin_id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec. A non-positive ttl falls back to DefaultTTL.
func NewCodec(secret []byte, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Codec{secret: secret, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// TTL returns the default lifetime of issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for the given identity. ttl <= 0 uses the codec default.
// It returns the token and its absolute expiry.
func (c *Codec) Issue(adminID, organizationID, email string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	exp := now.Add(ttl)
	cl := &claims{
		AdminID:        adminID,
		OrganizationID: organizationID,
		Email:          email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   adminID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate verifies signature, algorithm and expiry and returns the identity.
// Any failure yields ok == false; callers never see the reason.
func (c *Codec) Validate(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, false
	}
	cl, ok := parsed.Claims.(*claims)
	if !ok || cl.AdminID == "" || cl.OrganizationID == "" || cl.Email == "" {
		return Identity{}, false
	}
	return Identity{
		AdminID:        cl.AdminID,
		OrganizationID: cl.OrganizationID,
		Email:          cl.Email,
	}, true
}
