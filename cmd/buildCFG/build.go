// Package buildCFG turns the loaded configuration file into the typed
// settings each subsystem is constructed from.
package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"github.com/ingfranciscastillo/plataforma-gestion-eventos-backend/internal/mailer"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type StripeConfig struct {
	SecretKey string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	host := cfg.GetString("db.host")
	port := cfg.GetInt("db.port")
	user := cfg.GetString("db.user")
	password := cfg.GetString("db.password")
	name := cfg.GetString("db.name")
	sslMode := cfg.GetString("db.sslmode")

	if host == "" || user == "" || name == "" {
		return "", nil, nil, fmt.Errorf("db.host, db.user and db.name are required")
	}
	if port == 0 {
		port = 5432
	}
	if sslMode == "" {
		sslMode = "disable"
	}

	masterDSN := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user, password, host, port, name, sslMode)

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("db.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("db.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("db.conn_max_lifetime_seconds")) * time.Second,
	}

	log.Info().Str("host", host).Str("db", name).Msg("database configuration loaded")
	return masterDSN, nil, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return rc, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "registration.expiry"
	}
	if rc.Queue == "" {
		rc.Queue = "registration.expiry.queue"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configuration loaded")
	return rc, nil
}

func BuildAuthConfig(cfg *config.Config) (AuthConfig, error) {
	secret := cfg.GetString("auth.jwt_secret")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("auth.jwt_secret is required")
	}
	ttlHours := cfg.GetInt("auth.token_ttl_hours")
	if ttlHours == 0 {
		ttlHours = 168
	}
	return AuthConfig{
		JWTSecret: secret,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
	}, nil
}

func BuildSMTPConfig(cfg *config.Config) mailer.Config {
	return mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetInt("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
	}
}

func BuildStripeConfig(cfg *config.Config) (StripeConfig, error) {
	key := cfg.GetString("stripe.secret_key")
	if key == "" {
		return StripeConfig{}, fmt.Errorf("stripe.secret_key is required")
	}
	return StripeConfig{SecretKey: key}, nil
}

// BuildPaymentTimeout returns how long a pending premium registration may
// stay unpaid before the worker cancels it.
func BuildPaymentTimeout(cfg *config.Config) time.Duration {
	minutes := cfg.GetInt("payment.timeout_minutes")
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}
