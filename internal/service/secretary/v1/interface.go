// Package secretary provides methods for password hashing and token handling.
package secretary

import (
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
)

// Secretary defines a set of methods for types implementing Secretary.
type Secretary interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) error
	NewToken(userID string, role modelledger.Role) (string, error)
	ValidateToken(accessToken string) (modelclaims.Identity, error)
}
