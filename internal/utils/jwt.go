package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token type claims. Every JWT issued by this service carries a
// "type" claim so an access token can never be replayed as a
// refresh token or vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Verification failures. ErrTokenExpired is reported only when the
// token was otherwise well formed; everything else (bad signature,
// garbage structure, wrong type claim) collapses into ErrTokenInvalid.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// AccessToken represents a signed JWT access token along with its
// expiry. Access tokens are short-lived and sent in the
// Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived signed JWT used to obtain new
// access tokens. The raw string is both returned to the client and
// persisted in refresh_tokens, replacing the user's previous row.
type RefreshToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // UTC expiration time
}

// Claims is the validated content of a token as returned by
// VerifyToken. Email and Role are only populated on access tokens.
type Claims struct {
	UserID uint64
	Email  string
	Role   string
	Type   string
}

// NewAccessToken builds and signs an HS256 JWT for a user. The JWT
// embeds the subject (sub), email, role, type=access, expiration
// (exp) and issued at (iat) claims.
func NewAccessToken(secret string, userID uint64, email, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"type":  TokenTypeAccess,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 JWT carrying only the
// user id and type=refresh. Refresh tokens live longer than access
// tokens; ttlDays controls how many days the token is valid.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (RefreshToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": TokenTypeRefresh,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Token: signed, Exp: exp}, nil
}

// VerifyToken parses and validates a signed token, enforcing the
// HMAC signing method and the expected "type" claim. It returns
// ErrTokenExpired for structurally valid but expired tokens and
// ErrTokenInvalid for everything else that fails validation.
func VerifyToken(secret, raw, wantType string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}

	var c Claims
	// Numeric claims come back as float64 from the JSON decoder.
	sub, ok := mc["sub"].(float64)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	c.UserID = uint64(sub)
	c.Type, _ = mc["type"].(string)
	if c.Type != wantType {
		return Claims{}, ErrTokenInvalid
	}
	c.Email, _ = mc["email"].(string)
	c.Role, _ = mc["role"].(string)
	return c, nil
}
