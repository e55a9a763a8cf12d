package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded from environment variables
// with an optional .env file for development.
type Config struct {
	Addr          string `mapstructure:"SYSGA_ADDR"`
	AdminToken    string `mapstructure:"SYSGA_ADMIN_TOKEN"`
	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisURL      string `mapstructure:"REDIS_URL"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"` // comma-separated
	KafkaAuditTopic string `mapstructure:"KAFKA_AUDIT_TOPIC"`

	SMSAPIKey  string `mapstructure:"SMS_API_KEY"`
	SMSBaseURL string `mapstructure:"SMS_BASE_URL"`
	SMSSender  string `mapstructure:"SMS_SENDER"`

	SMTPAddr string `mapstructure:"SMTP_ADDR"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`

	ChainGatewayURL string `mapstructure:"CHAIN_GATEWAY_URL"`

	ChallengeTTL    time.Duration `mapstructure:"CHALLENGE_TTL"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	ReissueCooldown time.Duration `mapstructure:"REISSUE_COOLDOWN"`

	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
}

// Load builds the configuration. Missing .env is not an error; environment
// variables always win.
func Load() Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("no .env file found, using env variables only")
	}

	viper.SetDefault("SYSGA_ADDR", ":8080")
	viper.SetDefault("SYSGA_ADMIN_TOKEN", "")
	viper.SetDefault("JWT_SIGNING_KEY", "dev-secret-key-change-in-production")
	viper.SetDefault("KAFKA_AUDIT_TOPIC", "sysga.audit")
	viper.SetDefault("CHALLENGE_TTL", 5*time.Minute)
	viper.SetDefault("SESSION_TTL", 15*time.Minute)
	viper.SetDefault("REISSUE_COOLDOWN", 30*time.Second)
	viper.SetDefault("SWEEP_INTERVAL", time.Minute)

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		log.Fatal("config unmarshal error:", err)
	}
	return c
}

// Brokers splits the comma-separated broker list, returning nil when Kafka is
// not configured.
func (c Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
