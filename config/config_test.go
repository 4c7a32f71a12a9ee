package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("JWT_SECRET", "secret")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, 20.0, cfg.Booking.NightShiftPercent)
	assert.Equal(t, 6, cfg.Booking.LocalUTCOffsetHours)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.False(t, cfg.JWT.RevocationFailOpen)
	assert.Equal(t, 30.0, cfg.Booking.CommissionPercent)
	assert.Equal(t, "BD", cfg.PhoneRegion)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("JWT_SECRET", "secret")
	v.Set("DB_DRIVER", "SQLite")
	v.Set("BOOKING_NIGHT_SHIFT_PERCENT", 35)
	v.Set("CORS_ORIGINS", "https://a.example, https://b.example")
	v.Set("JWT_REVOCATION_FAIL_OPEN", "true")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 35.0, cfg.Booking.NightShiftPercent)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.JWT.RevocationFailOpen)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	_, err := fromViper(v)
	assert.Error(t, err, "missing secret")

	v.Set("JWT_SECRET", "secret")
	v.Set("DB_DRIVER", "postgres")
	_, err = fromViper(v)
	assert.Error(t, err)

	v.Set("DB_DRIVER", "sqlite")
	v.Set("BOOKING_NIGHT_SHIFT_PERCENT", -1)
	_, err = fromViper(v)
	assert.Error(t, err)

	v.Set("BOOKING_NIGHT_SHIFT_PERCENT", 20)
	v.Set("BOOKING_COMMISSION_PERCENT", 120)
	_, err = fromViper(v)
	assert.Error(t, err)
}

func TestInitDBSQLite(t *testing.T) {
	db, err := InitDB(DatabaseConfig{Driver: "sqlite", DSN: "file:config_test?mode=memory&cache=shared"}, false)
	require.NoError(t, err)
	require.NoError(t, db.Exec("SELECT 1").Error)
}
