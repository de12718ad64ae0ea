package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"smartplay-service/internal/domain"
)

// ErrInvalidToken covers missing, malformed, expired, or mis-signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Manager issues and verifies the HS256 access tokens used for player login.
type Manager struct {
	secret []byte
	expiry time.Duration
}

func NewManager(secret string, expiry time.Duration) *Manager {
	if expiry == 0 {
		expiry = time.Hour
	}
	return &Manager{secret: []byte(secret), expiry: expiry}
}

// Expiry returns the configured token lifetime, used for the cookie max-age.
func (m *Manager) Expiry() time.Duration { return m.expiry }

type claims struct {
	PlayerID int64 `json:"id"`
	jwt.RegisteredClaims
}

// Issue creates an access token carrying the player's id and name.
func (m *Manager) Issue(player domain.Player) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		PlayerID: player.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   player.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the player id and name it carries.
func (m *Manager) Verify(raw string) (int64, string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.PlayerID == 0 {
		return 0, "", ErrInvalidToken
	}
	return c.PlayerID, c.Subject, nil
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
