// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jason-s-yu/scorekeeper/internal/models"
)

// privateKey and publicKey are used for signing and verifying session tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is how long issued tokens stay valid (0 => no exp claim).
	tokenTTL time.Duration
)

// ErrNoSigningKey is returned by CreateJWT when only a public key is loaded.
var ErrNoSigningKey = errors.New("no private key loaded")

// Claims is the session token payload: sub is the user, tid the tenant.
type Claims struct {
	TenantID string `json:"tid"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Init generates a fresh ed25519 key pair at runtime. Tokens signed with it
// do not survive a restart; use InitFromPath to verify externally issued ones.
func Init(ttl time.Duration) error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	tokenTTL = ttl
	return nil
}

// InitFromPath reads raw ed25519 keys from disk. privatePath may be empty on
// servers that only verify tokens.
func InitFromPath(privatePath, publicPath string, ttl time.Duration) error {
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(publicKeyData) != ed25519.PublicKeySize {
		return fmt.Errorf("public key file %s: want %d bytes, got %d", publicPath, ed25519.PublicKeySize, len(publicKeyData))
	}
	publicKey = ed25519.PublicKey(publicKeyData)
	privateKey = nil

	if privatePath != "" {
		privateKeyData, err := os.ReadFile(privatePath)
		if err != nil {
			return fmt.Errorf("failed to read private key file: %w", err)
		}
		privateKey = ed25519.PrivateKey(privateKeyData)
	}
	tokenTTL = ttl
	return nil
}

// CreateJWT signs a session token for u.
func CreateJWT(u models.User) (string, error) {
	if privateKey == nil {
		return "", ErrNoSigningKey
	}
	claims := Claims{
		TenantID: u.TenantID,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  u.ID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a token and returns the user it names.
func AuthenticateJWT(tokenString string) (models.User, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return models.User{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return models.User{}, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return models.User{}, fmt.Errorf("missing sub in jwt")
	}
	if claims.TenantID == "" {
		return models.User{}, fmt.Errorf("missing tid in jwt")
	}
	return models.User{ID: claims.Subject, TenantID: claims.TenantID, Role: claims.Role}, nil
}
