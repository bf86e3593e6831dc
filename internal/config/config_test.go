package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setIdentityEnv(t *testing.T) {
	t.Setenv("IDENTITY_ISSUER", "https://idp.example.com")
	t.Setenv("IDENTITY_AUDIENCE", "cartai-app")
	t.Setenv("IDENTITY_JWT_SECRET", testSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	setIdentityEnv(t)

	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, int64(20000), cfg.MinWithdrawal)
	assert.Equal(t, int64(2000), cfg.RefereeBonus)
	assert.Equal(t, int64(6000), cfg.ReferrerBonus)
	assert.Equal(t, 60, cfg.FreeYieldTermDays)
	assert.Equal(t, "America/Bogota", cfg.Timezone.String())
	assert.Empty(t, cfg.AdminUserIDs)
	assert.Equal(t, "https://idp.example.com", cfg.IdentityIssuer)
	assert.False(t, cfg.DebitOnApproval)
	assert.False(t, cfg.RefundOnReject)
	assert.Equal(t, 800*time.Millisecond, cfg.GameOpponentDelay)
	assert.Equal(t, "@every 1h", cfg.IdempotencyPurgeSchedule)
}

func TestLoadPrefixedOverrides(t *testing.T) {
	t.Setenv("CARTAI_JWT_SECRET", testSecret)
	setIdentityEnv(t)
	t.Setenv("CARTAI_ADMIN_USER_IDS", "6f1c1c2e-4c56-4d8e-9a0b-1f2e3d4c5b6a, 0b8e7a5c-2d1f-4e3a-8b9c-7d6e5f4a3b2c")
	t.Setenv("CARTAI_WITHDRAWAL_REFUND_ON_REJECT", "true")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("MIN_WITHDRAWAL", "25000")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{
		uuid.MustParse("6f1c1c2e-4c56-4d8e-9a0b-1f2e3d4c5b6a"),
		uuid.MustParse("0b8e7a5c-2d1f-4e3a-8b9c-7d6e5f4a3b2c"),
	}, cfg.AdminUserIDs)
	assert.True(t, cfg.RefundOnReject)
	assert.Equal(t, time.UTC, cfg.Timezone)
	assert.Equal(t, int64(25000), cfg.MinWithdrawal)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing_secret", map[string]string{}, "JWT_SECRET is required"},
		{"short_secret", map[string]string{"JWT_SECRET": "short"}, "at least 32"},
		{"bad_timezone", map[string]string{"JWT_SECRET": testSecret, "TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
		{"bad_duration", map[string]string{"JWT_SECRET": testSecret, "GAME_SESSION_TTL": "soon"}, "GAME_SESSION_TTL"},
		{"bad_schedule", map[string]string{"JWT_SECRET": testSecret, "MATURITY_SCHEDULE": "whenever"}, "MATURITY_SCHEDULE"},
		{"bad_purge_schedule", map[string]string{"JWT_SECRET": testSecret, "IDEMPOTENCY_PURGE_SCHEDULE": "* *"}, "IDEMPOTENCY_PURGE_SCHEDULE"},
		{"missing_identity_key", map[string]string{"JWT_SECRET": testSecret, "IDENTITY_JWT_SECRET": ""}, "IDENTITY_JWT_SECRET or IDENTITY_PUBLIC_KEY"},
		{"missing_identity_issuer", map[string]string{"JWT_SECRET": testSecret, "IDENTITY_ISSUER": ""}, "IDENTITY_ISSUER"},
		{"bad_admin_id", map[string]string{"JWT_SECRET": testSecret, "ADMIN_USER_IDS": "admincartai@cartai.com"}, "ADMIN_USER_IDS"},
		{"zero_pool", map[string]string{"JWT_SECRET": testSecret, "DB_MAX_CONNS": "0"}, "DB_MAX_CONNS"},
		{"zero_minimum", map[string]string{"JWT_SECRET": testSecret, "MIN_WITHDRAWAL": "0"}, "MIN_WITHDRAWAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			setIdentityEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromViper(newViper())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
