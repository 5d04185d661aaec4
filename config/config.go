package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	AES       AESConfig       `mapstructure:"aes"`
	Log       LogConfig       `mapstructure:"log"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Card      CardConfig      `mapstructure:"card"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// AMQPConfig points the notification publisher at a broker. An empty URL
// selects the log-only sender.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// LedgerConfig carries the numbering scheme used for new accounts and cards.
type LedgerConfig struct {
	BankCode        string            `mapstructure:"bank_code"`
	BranchCode      string            `mapstructure:"branch_code"`
	CurrencyCodes   map[string]string `mapstructure:"currency_codes"`
	CardPrefix      string            `mapstructure:"card_prefix"`
	CardNetworkCode string            `mapstructure:"card_network_code"`
}

type WorkflowConfig struct {
	StagedTTL       time.Duration `mapstructure:"staged_ttl"`
	OTPExpiry       time.Duration `mapstructure:"otp_expiry"`
	LoginAttempts   int           `mapstructure:"login_attempts"`
	LockoutDuration time.Duration `mapstructure:"lockout_duration"`
}

// MonitorConfig holds the suspicious-activity thresholds. LargeThreshold is
// a decimal string so it never passes through float64.
type MonitorConfig struct {
	WindowHours    int    `mapstructure:"window_hours"`
	LargeThreshold string `mapstructure:"large_threshold"`
	FrequentCount  int    `mapstructure:"frequent_count"`
	AlertRecipient string `mapstructure:"alert_recipient"`
}

type SchedulerConfig struct {
	InterestSchedule string `mapstructure:"interest_schedule"`
	MonitorSchedule  string `mapstructure:"monitor_schedule"`
}

type CardConfig struct {
	CVVSecret     string `mapstructure:"cvv_secret"`
	MaxPerUser    int    `mapstructure:"max_per_user"`
	ValidityYears int    `mapstructure:"validity_years"`
}

// defaults are applied before the file and environment are read.
var defaults = map[string]any{
	"server.host":                 "0.0.0.0",
	"server.port":                 8080,
	"server.mode":                 "debug",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "postgres",
	"database.dbname":             "retail_banking",
	"database.sslmode":            "disable",
	"database.max_conns":          20,
	"database.min_conns":          5,
	"database.conn_max_lifetime":  "30m",
	"database.migrations_path":    "file://migrations",
	"redis.host":                  "localhost",
	"redis.port":                  6379,
	"redis.password":              "",
	"redis.db":                    0,
	"jwt.secret":                  "",
	"jwt.expiry":                  "24h",
	"jwt.issuer":                  "retail-banking-core",
	"aes.key":                     "",
	"log.level":                   "info",
	"log.pretty":                  false,
	"amqp.url":                    "",
	"amqp.exchange":               "notifications",
	"ledger.bank_code":            "1234",
	"ledger.branch_code":          "5678",
	"ledger.currency_codes":       map[string]string{"EGP": "1", "SAR": "2", "USD": "3", "EUR": "4"},
	"ledger.card_prefix":          "4",
	"ledger.card_network_code":    "17",
	"workflow.staged_ttl":         "15m",
	"workflow.otp_expiry":         "5m",
	"workflow.login_attempts":     3,
	"workflow.lockout_duration":   "30m",
	"monitor.window_hours":        24,
	"monitor.large_threshold":     "10000",
	"monitor.frequent_count":      10,
	"monitor.alert_recipient":     "ops@retail-banking.local",
	"scheduler.interest_schedule": "0 0 * * *",
	"scheduler.monitor_schedule":  "0 * * * *",
	"card.cvv_secret":             "",
	"card.max_per_user":           3,
	"card.validity_years":         3,
}

// Load reads config.yaml (or path) and then RBC_-prefixed environment
// variables, e.g. RBC_MONITOR_LARGE_THRESHOLD for monitor.large_threshold.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("RBC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every setting the binaries cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if key, err := hex.DecodeString(c.AES.Key); err != nil || len(key) != 32 {
		errs = append(errs, errors.New("aes.key must be 64 hex characters"))
	}
	if c.Card.CVVSecret == "" {
		errs = append(errs, errors.New("card.cvv_secret is required"))
	}
	if d, err := decimal.NewFromString(c.Monitor.LargeThreshold); err != nil || !d.IsPositive() {
		errs = append(errs, fmt.Errorf("monitor.large_threshold %q is not a positive amount", c.Monitor.LargeThreshold))
	}
	if c.Workflow.StagedTTL <= 0 || c.Workflow.OTPExpiry <= 0 {
		errs = append(errs, errors.New("workflow.staged_ttl and workflow.otp_expiry must be positive"))
	}
	if c.Workflow.LoginAttempts < 1 {
		errs = append(errs, errors.New("workflow.login_attempts must be at least 1"))
	}
	if len(c.Ledger.CurrencyCodes) == 0 {
		errs = append(errs, errors.New("ledger.currency_codes must not be empty"))
	}
	return errors.Join(errs...)
}
