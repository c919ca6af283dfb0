package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the storefront.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Admin    AdminConfig
	Business BusinessConfig
	RabbitMQ RabbitMQConfig
	// DeliveryCharges seeds the delivery table when the store has none.
	DeliveryCharges map[string]map[string]float64
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type AdminConfig struct {
	Username  string
	Password  string
	JWTSecret string
}

type BusinessConfig struct {
	MinOrderValue  decimal.Decimal
	OrderLogPath   string
	PaymentQRImage string
}

type RabbitMQConfig struct {
	URL string
}

// DefaultJWTSecret is the development-only token signing key.
const DefaultJWTSecret = "change-me"

type deliveryChargeRow struct {
	State  string  `mapstructure:"state"`
	City   string  `mapstructure:"city"`
	Amount float64 `mapstructure:"amount"`
}

// Load reads .env (if any), config.yaml (if any) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "storefront.db")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("MIN_ORDER_VALUE", "25000")
	v.SetDefault("ORDER_LOG_PATH", "orders.log")
	v.SetDefault("PAYMENT_QR_IMAGE", "/static/payment_qr.png")
	v.SetDefault("RABBITMQ_URL", "")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	minOrder, err := decimal.NewFromString(v.GetString("MIN_ORDER_VALUE"))
	if err != nil {
		return nil, errors.New("MIN_ORDER_VALUE must be a number")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("APP_PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Session: SessionConfig{
			Secret: v.GetString("SESSION_SECRET"),
			TTL:    v.GetDuration("SESSION_TTL"),
		},
		Admin: AdminConfig{
			Username:  v.GetString("ADMIN_USERNAME"),
			Password:  v.GetString("ADMIN_PASSWORD"),
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Business: BusinessConfig{
			MinOrderValue:  minOrder,
			OrderLogPath:   v.GetString("ORDER_LOG_PATH"),
			PaymentQRImage: v.GetString("PAYMENT_QR_IMAGE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: v.GetString("RABBITMQ_URL"),
		},
		DeliveryCharges: DefaultDeliveryCharges(),
	}

	if v.IsSet("delivery_charges") {
		// A list of records, since viper folds map keys to lower case.
		var rows []deliveryChargeRow
		if err := v.UnmarshalKey("delivery_charges", &rows); err != nil {
			return nil, fmt.Errorf("delivery_charges must be a list of {state, city, amount}: %w", err)
		}
		custom := make(map[string]map[string]float64)
		for i, r := range rows {
			state, city := strings.TrimSpace(r.State), strings.TrimSpace(r.City)
			if state == "" || city == "" || r.Amount < 0 {
				return nil, fmt.Errorf("delivery_charges[%d]: state and city are required and amount must not be negative", i)
			}
			if custom[state] == nil {
				custom[state] = make(map[string]float64)
			}
			custom[state][city] = r.Amount
		}
		cfg.DeliveryCharges = custom
	}
	if cfg.IsProduction() && cfg.Admin.JWTSecret == DefaultJWTSecret {
		return nil, errors.New("JWT_SECRET must be set in production")
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	return cfg, nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// DefaultDeliveryCharges is the seed delivery table.
func DefaultDeliveryCharges() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"Madhya Pradesh": {"Bhopal": 200, "Indore": 250, "Gwalior": 300, "Jabalpur": 300, "Ujjain": 250},
		"Maharashtra":    {"Mumbai": 400, "Pune": 350, "Nagpur": 300},
		"Delhi":          {"New Delhi": 350},
		"Gujarat":        {"Ahmedabad": 350, "Surat": 350},
		"Rajasthan":      {"Jaipur": 300, "Udaipur": 350},
		"Uttar Pradesh":  {"Lucknow": 300, "Kanpur": 300},
	}
}
