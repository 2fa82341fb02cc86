package app

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "user-secret", Expiry: time.Hour, Issuer: "test-issuer"})

	token, err := tm.Generate("alice", "127.0.0.1")
	require.NoError(t, err)

	user, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.UID)
	assert.Equal(t, "127.0.0.1", user.IP)
	assert.Equal(t, "test-issuer", user.Issuer)

	// 过期时间允许 1 秒误差
	expected := time.Now().Add(time.Hour).Unix()
	assert.InDelta(t, expected, user.ExpiresAt.Unix(), 1)

	assert.NoError(t, tm.Validate(token))
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "user-secret"})
	token, err := tm.Generate("alice", "")
	require.NoError(t, err)

	// 错误的密钥
	other := NewTokenManager(TokenConfig{SecretKey: "wrong-secret"})
	_, err = other.Parse(token)
	assert.Error(t, err)

	// 篡改后的 Token
	_, err = tm.Parse(token + "tampered")
	assert.Error(t, err)

	// 已过期
	expired := NewTokenManager(TokenConfig{SecretKey: "user-secret", Expiry: -time.Minute})
	old, err := expired.Generate("alice", "")
	require.NoError(t, err)
	_, err = tm.Parse(old)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_EmptyInputs(t *testing.T) {
	_, err := NewTokenManager(TokenConfig{}).Generate("alice", "")
	assert.ErrorIs(t, err, ErrEmptySecretKey)

	_, err = NewTokenManager(TokenConfig{SecretKey: "k"}).Generate("", "")
	assert.Error(t, err)

	_, err = ParseTokenWithKey("anything", "")
	assert.ErrorIs(t, err, ErrEmptySecretKey)
}

func TestGetUID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetUID(c))

	c.Set(UserTokenKey, &UserEntity{UID: "bob", IP: "10.0.0.1"})
	assert.Equal(t, "bob", GetUID(c))
	assert.Equal(t, "10.0.0.1", GetIP(c))
}
