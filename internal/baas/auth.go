package baas

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in BaaS access tokens.
const (
	RoleAuthenticated = "authenticated"
	RoleServiceRole   = "service_role"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("baas: invalid token")

// Claims are the access token claims the BaaS auth service issues.
type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// UserID returns the subject, which is the user's id.
func (c *Claims) UserID() string {
	return c.Subject
}

// IsServiceRole reports whether the token carries the service role.
func (c *Claims) IsServiceRole() bool {
	return c.Role == RoleServiceRole
}

// Verifier validates HS256 tokens signed with the project's JWT secret.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier creates a Verifier.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), leeway: 30 * time.Second}
}

// Verify parses the token and checks signature, expiry, and role.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	switch claims.Role {
	case RoleAuthenticated:
		if claims.Subject == "" {
			return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
		}
	case RoleServiceRole:
	default:
		return nil, fmt.Errorf("%w: role %q not accepted", ErrInvalidToken, claims.Role)
	}

	return claims, nil
}

// Sign issues a token for claims. Used by tooling and tests; production
// tokens come from the BaaS auth service.
func (v *Verifier) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
