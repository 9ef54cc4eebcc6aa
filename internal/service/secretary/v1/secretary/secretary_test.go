package secretary

import (
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSecretary(t *testing.T) *Secretary {
	sec, err := NewSecretaryService(&config.SecretConfig{SecretKey: "test-key", TokenTTL: time.Minute})
	require.NoError(t, err)
	sec.cost = 4
	return sec
}

func TestNewSecretaryService_EmptyKey(t *testing.T) {
	_, err := NewSecretaryService(&config.SecretConfig{})
	assert.Error(t, err)
}

func TestPasswords(t *testing.T) {
	sec := newSecretary(t)
	hash, err := sec.HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.NoError(t, sec.ComparePassword(hash, "s3cret!"))
	assert.Error(t, sec.ComparePassword(hash, "wrong"))
}

func TestTokens(t *testing.T) {
	sec := newSecretary(t)

	token, err := sec.NewToken("u1", modelledger.RoleAdmin)
	require.NoError(t, err)
	id, err := sec.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, modelclaims.Identity{UserID: "u1", IsAdmin: true}, id)

	token, err = sec.NewToken("u2", modelledger.RoleUser)
	require.NoError(t, err)
	id, err = sec.ValidateToken(token)
	require.NoError(t, err)
	assert.False(t, id.IsAdmin)
}

func TestValidateToken_Rejects(t *testing.T) {
	sec := newSecretary(t)

	other, err := NewSecretaryService(&config.SecretConfig{SecretKey: "other-key"})
	require.NoError(t, err)
	foreign, err := other.NewToken("u1", modelledger.RoleAdmin)
	require.NoError(t, err)
	_, err = sec.ValidateToken(foreign)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &modelclaims.Claims{
		UserID:         "u1",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()},
	})
	signed, err := expired.SignedString(sec.key)
	require.NoError(t, err)
	_, err = sec.ValidateToken(signed)
	assert.Error(t, err)

	_, err = sec.ValidateToken("garbage")
	assert.Error(t, err)
}
