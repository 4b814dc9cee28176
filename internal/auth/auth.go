package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "hays/backend/pkg/errors"
)

// Caller is the authenticated user resolved from a bearer credential.
type Caller struct {
	ID         string
	Username   string
	ProfilePic string
	Role       string
}

// IsAdmin reports whether the caller carries an administrative role.
func (c Caller) IsAdmin() bool {
	switch strings.ToLower(c.Role) {
	case "admin", "superadmin":
		return true
	}
	return false
}

// Claims defines the custom claims structure for the service's JWTs. The
// user id travels in the registered subject claim.
type Claims struct {
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic,omitempty"`
	Role       string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates (and, for tooling and tests, issues) the bearer
// credentials of the identity provider.
type Authenticator struct {
	secretKey []byte
	issuer    string
	validity  time.Duration
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(secretKey, issuer string, validity time.Duration) *Authenticator {
	return &Authenticator{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		validity:  validity,
	}
}

// GenerateToken creates a signed JWT for a user.
func (a *Authenticator) GenerateToken(c Caller) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:   c.Username,
		ProfilePic: c.ProfilePic,
		Role:       c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.validity)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secretKey)
}

// ResolveCaller parses and validates a bearer token, resolving it to the
// caller it was issued for. Every failure mode maps to an authentication
// error; the caller never learns which check rejected the credential.
func (a *Authenticator) ResolveCaller(tokenString string) (Caller, error) {
	if tokenString == "" {
		return Caller{}, apperrors.New(apperrors.KindAuthentication, "missing credentials")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Caller{}, apperrors.New(apperrors.KindAuthentication, "token has expired")
		}
		return Caller{}, apperrors.Wrap(apperrors.KindAuthentication, "could not validate credentials", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Caller{}, apperrors.New(apperrors.KindAuthentication, "could not validate credentials")
	}

	return Caller{
		ID:         claims.Subject,
		Username:   claims.Username,
		ProfilePic: claims.ProfilePic,
		Role:       claims.Role,
	}, nil
}
