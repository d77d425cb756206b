package jwt

import (
	"errors"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer       = "newsguard"
	AdminSubject = "admin"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
	ErrMissingSecret = errors.New("server secret key is not configured")
)

type (
	Manager interface {
		CreateToken(subject string, ttl time.Duration) (string, error)
		ValidateToken(tokenString string) error
		DecodeToken(tokenString string) (*Claims, error)
	}
	manager struct {
		config *config.ServerConfig
	}
)

func NewJwtManager(config *config.ServerConfig) Manager {
	return &manager{
		config: config,
	}
}

type Claims struct {
	jwt.RegisteredClaims
}

// CreateToken signs an HS256 admin token. A zero ttl yields a token
// without expiry.
func (m *manager) CreateToken(subject string, ttl time.Duration) (string, error) {
	if m.config.SecretKey == "" {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

func (m *manager) ValidateToken(tokenString string) error {
	_, err := m.DecodeToken(tokenString)
	return err
}

func (m *manager) DecodeToken(tokenString string) (*Claims, error) {
	if m.config.SecretKey == "" {
		return nil, ErrMissingSecret
	}
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(m.config.SecretKey), nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
