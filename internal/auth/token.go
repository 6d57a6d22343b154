package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"apistarter/internal/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidPayload   = errors.New("invalid token payload")
)

// TokenManager mints and parses the three JWT kinds the application uses:
// short-lived access tokens, longer-lived refresh tokens, and one-shot email
// verification tokens (marked with a "verify" claim). All are HS256-signed
// with the configured secret and carry the user's email as subject.
type TokenManager struct {
	secret          []byte
	accessTTL       time.Duration
	refreshTTL      time.Duration
	verificationTTL time.Duration
}

// NewTokenManager builds a TokenManager from auth settings.
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:          []byte(cfg.SecretKey),
		accessTTL:       time.Duration(cfg.AccessTokenExpireMin) * time.Minute,
		refreshTTL:      time.Duration(cfg.RefreshTokenExpireDays) * 24 * time.Hour,
		verificationTTL: time.Duration(cfg.VerificationExpireHours) * time.Hour,
	}
}

// AccessTTL returns the configured access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// AccessToken mints an access token for the given email.
func (m *TokenManager) AccessToken(email string) (string, error) {
	return m.sign(jwt.MapClaims{
		"sub": email,
		"jti": uuid.NewString(),
		"exp": jwt.NewNumericDate(time.Now().UTC().Add(m.accessTTL)),
	})
}

// RefreshToken mints a refresh token for the given email. The jti claim makes
// every mint distinct: exp has second resolution, and refresh tokens are
// stored in a table with a unique constraint on the token string, so rotation
// must never reproduce the token it just revoked.
func (m *TokenManager) RefreshToken(email string) (string, error) {
	return m.sign(jwt.MapClaims{
		"sub": email,
		"jti": uuid.NewString(),
		"exp": jwt.NewNumericDate(time.Now().UTC().Add(m.refreshTTL)),
	})
}

// VerificationToken mints an email verification token. The "verify" claim
// distinguishes it from session tokens so one cannot stand in for the other.
func (m *TokenManager) VerificationToken(email string) (string, error) {
	return m.sign(jwt.MapClaims{
		"sub":    email,
		"verify": true,
		"exp":    jwt.NewNumericDate(time.Now().UTC().Add(m.verificationTTL)),
	})
}

// ParseSubject validates a session token signature and expiry and returns the
// email it was issued for. Verification tokens are rejected here.
func (m *TokenManager) ParseSubject(token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", err
	}
	if v, ok := claims["verify"].(bool); ok && v {
		return "", ErrInvalidTokenType
	}
	return subject(claims)
}

// ParseVerification validates an email verification token and returns the
// email it was issued for. Session tokens are rejected here.
func (m *TokenManager) ParseVerification(token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", err
	}
	if v, ok := claims["verify"].(bool); !ok || !v {
		return "", ErrInvalidTokenType
	}
	return subject(claims)
}

func (m *TokenManager) sign(claims jwt.MapClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) parse(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func subject(claims jwt.MapClaims) (string, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidPayload
	}
	return sub, nil
}
