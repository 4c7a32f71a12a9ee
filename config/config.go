package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort      string
	GinMode      string
	Debug        bool
	CORSOrigins  []string
	RateLimitRPS float64
	RateBurst    int
	PhoneRegion  string
	CurrencyCode string

	DB      DatabaseConfig
	JWT     JWTConfig
	Booking BookingConfig
	Redis   RedisConfig
	AMQP    AMQPConfig
	Payment PaymentConfig
	Log     LogConfig
}

type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration

	// RevocationFailOpen accepts tokens while the blacklist store is down.
	RevocationFailOpen bool
}

type BookingConfig struct {
	NightShiftPercent   float64
	LocalUTCOffsetHours int
	ScheduleTimezone    string

	// CommissionPercent of a paid booking's total is owed by the worker.
	CommissionPercent float64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type PaymentConfig struct {
	GatewayURL string
	GatewayKey string
	Timeout    time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("APP_DEBUG", false)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("PHONE_DEFAULT_REGION", "BD")
	v.SetDefault("CURRENCY_CODE", "BDT")

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_NAME", "service_booking")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("JWT_REVOCATION_FAIL_OPEN", false)

	v.SetDefault("BOOKING_NIGHT_SHIFT_PERCENT", 20)
	v.SetDefault("LOCAL_UTC_OFFSET_HOURS", 6)
	v.SetDefault("SCHEDULE_TIMEZONE", "")
	v.SetDefault("BOOKING_COMMISSION_PERCENT", 30)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AMQP_EXCHANGE", "bookings")
	v.SetDefault("PAYMENT_GATEWAY_TIMEOUT_SECONDS", 15)

	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:      v.GetString("APP_PORT"),
		GinMode:      v.GetString("GIN_MODE"),
		Debug:        v.GetBool("APP_DEBUG"),
		CORSOrigins:  splitList(v.GetString("CORS_ORIGINS")),
		RateLimitRPS: v.GetFloat64("RATE_LIMIT_RPS"),
		RateBurst:    v.GetInt("RATE_LIMIT_BURST"),
		PhoneRegion:  strings.ToUpper(v.GetString("PHONE_DEFAULT_REGION")),
		CurrencyCode: v.GetString("CURRENCY_CODE"),
		DB: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:      v.GetString("DB_DSN"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,

			RevocationFailOpen: v.GetBool("JWT_REVOCATION_FAIL_OPEN"),
		},
		Booking: BookingConfig{
			NightShiftPercent:   v.GetFloat64("BOOKING_NIGHT_SHIFT_PERCENT"),
			LocalUTCOffsetHours: v.GetInt("LOCAL_UTC_OFFSET_HOURS"),
			ScheduleTimezone:    v.GetString("SCHEDULE_TIMEZONE"),
			CommissionPercent:   v.GetFloat64("BOOKING_COMMISSION_PERCENT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
		Payment: PaymentConfig{
			GatewayURL: v.GetString("PAYMENT_GATEWAY_URL"),
			GatewayKey: v.GetString("PAYMENT_GATEWAY_KEY"),
			Timeout:    time.Duration(v.GetInt("PAYMENT_GATEWAY_TIMEOUT_SECONDS")) * time.Second,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Booking.NightShiftPercent < 0 {
		return fmt.Errorf("BOOKING_NIGHT_SHIFT_PERCENT must not be negative")
	}
	if c.Booking.CommissionPercent < 0 || c.Booking.CommissionPercent > 100 {
		return fmt.Errorf("BOOKING_COMMISSION_PERCENT must be between 0 and 100")
	}
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
