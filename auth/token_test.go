package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("unit-test-secret")

	token, err := v.GenerateToken("alice", "moderator", time.Minute)
	req.NoError(err)

	claims, err := v.ValidateToken(token)
	req.NoError(err)
	req.Equal("alice", claims.Username)
	req.Equal("moderator", claims.Role)
	req.Equal("chat-hub", claims.Issuer)
}

func TestVerifier_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("unit-test-secret")

	token, err := v.GenerateToken("alice", "member", -time.Minute)
	req.NoError(err)

	_, err = v.ValidateToken(token)
	req.ErrorIs(err, jwt.ErrTokenExpired)
}

func TestVerifier_RejectsForeignSignature(t *testing.T) {
	req := require.New(t)

	token, err := NewVerifier("secret-a").GenerateToken("alice", "member", time.Minute)
	req.NoError(err)

	_, err = NewVerifier("secret-b").ValidateToken(token)
	req.Error(err)
}
