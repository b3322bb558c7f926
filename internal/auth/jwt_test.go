package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "voxrelay",
		Audience: "publish",
		TTL:      time.Hour,
	}
}

func TestGenerateAndValidate(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "device-1", "kitchen", time.Now())
	require.NoError(t, err)

	claims, err := ValidateToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "device-1", claims.Subject)
	assert.Equal(t, "kitchen", claims.Name)
}

func TestValidateRejects(t *testing.T) {
	cfg := testConfig()

	expired, err := GenerateToken(cfg, "d", "", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	otherSecret := *cfg
	otherSecret.Secret = []byte("other")
	forged, err := GenerateToken(&otherSecret, "d", "", time.Now())
	require.NoError(t, err)

	otherAudience := *cfg
	otherAudience.Audience = "admin"
	wrongAud, err := GenerateToken(&otherAudience, "d", "", time.Now())
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "d"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":        expired,
		"wrong secret":   forged,
		"wrong audience": wrongAud,
		"alg none":       none,
		"garbage":        "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(cfg, token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestEnabled(t *testing.T) {
	var nilCfg *JWTConfig
	assert.False(t, nilCfg.Enabled())
	assert.False(t, (&JWTConfig{}).Enabled())
	assert.True(t, testConfig().Enabled())
}

func TestPublishConfig(t *testing.T) {
	assert.Nil(t, PublishConfig(""))

	cfg := PublishConfig("s3cret")
	require.True(t, cfg.Enabled())
	assert.Equal(t, DefaultIssuer, cfg.Issuer)
	assert.Equal(t, PublishAudience, cfg.Audience)
}
