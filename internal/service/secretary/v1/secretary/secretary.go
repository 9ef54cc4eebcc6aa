// Package secretary provides methods for password hashing and token handling.
package secretary

import (
	"errors"
	"fmt"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

// Secretary defines object structure and its attributes.
type Secretary struct {
	key  []byte
	ttl  time.Duration
	cost int
}

// NewSecretaryService initializes a secretary service.
func NewSecretaryService(c *config.SecretConfig) (*Secretary, error) {
	if c == nil || c.SecretKey == "" {
		return nil, errors.New("empty secret key was found")
	}
	ttl := c.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Secretary{
		key:  []byte(c.SecretKey),
		ttl:  ttl,
		cost: bcrypt.DefaultCost,
	}, nil
}

// HashPassword returns the bcrypt hash of password.
func (s *Secretary) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword returns nil if password matches hash.
func (s *Secretary) ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// NewToken issues a signed token for the user.
func (s *Secretary) NewToken(userID string, role modelledger.Role) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &modelclaims.Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	})
	return token.SignedString(s.key)
}

// ValidateToken checks the signature and expiry and returns the caller.
func (s *Secretary) ValidateToken(accessToken string) (modelclaims.Identity, error) {
	token, err := jwt.ParseWithClaims(accessToken, &modelclaims.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return modelclaims.Identity{}, err
	}
	if claims, ok := token.Claims.(*modelclaims.Claims); ok && token.Valid && claims.UserID != "" {
		return modelclaims.Identity{UserID: claims.UserID, IsAdmin: claims.Role == modelledger.RoleAdmin}, nil
	}
	return modelclaims.Identity{}, errors.New("invalid access token")
}
