package config

import (
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Policy holds the credential guard thresholds
type Policy struct {
	LockoutThreshold int
	LockoutWindow    time.Duration
	SessionTimeout   time.Duration
}

// Products holds loan, fixed deposit and transfer rules
type Products struct {
	LoanInterestRate         decimal.Decimal
	LoanMinAccountAge        time.Duration
	FixedDepositInterestRate decimal.Decimal
	FixedDepositMonthDays    int
	MaxTermMonths            int // longest loan or fixed deposit term accepted
	PendingTransferTTL       time.Duration
}

type StorageConfig struct {
	Driver   string // "file" or "postgres"
	FilePath string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	SecretKey string
	Issuer    string
}

type Argon2Config struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
	Salt      string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Config is the typed view over viper settings
type Config struct {
	Policy   Policy
	Products Products
	Storage  StorageConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Argon2   Argon2Config
	Server   ServerConfig
}

// decimalDefaults are the fallbacks for decimal settings that fail to parse.
var decimalDefaults = map[string]string{
	"loan.interest_rate":          "0.05",
	"fixed_deposit.interest_rate": "0.07",
}

var envBindings = map[string]string{
	"policy.lockout_threshold":    "LOCKOUT_THRESHOLD",
	"policy.lockout_window":       "LOCKOUT_WINDOW",
	"policy.session_timeout":      "SESSION_TIMEOUT",
	"loan.interest_rate":          "LOAN_INTEREST_RATE",
	"loan.min_account_age":        "LOAN_MIN_ACCOUNT_AGE",
	"fixed_deposit.interest_rate": "FIXED_DEPOSIT_INTEREST_RATE",
	"fixed_deposit.month_days":    "FIXED_DEPOSIT_MONTH_DAYS",
	"products.max_term_months":    "MAX_TERM_MONTHS",
	"transfer.pending_ttl":        "TRANSFER_PENDING_TTL",
	"storage.driver":              "STORAGE_DRIVER",
	"storage.file_path":           "DATA_FILE",
	"database.host":               "DATABASE_HOST",
	"database.port":               "DATABASE_PORT",
	"database.user":               "DATABASE_USER",
	"database.password":           "DATABASE_PASSWORD",
	"database.name":               "DATABASE_NAME",
	"database.ssl_mode":           "DATABASE_SSL_MODE",
	"redis.enabled":               "REDIS_ENABLED",
	"redis.host":                  "REDIS_HOST",
	"redis.port":                  "REDIS_PORT",
	"redis.password":              "REDIS_PASSWORD",
	"redis.db":                    "REDIS_DB",
	"jwt.secret_key":              "JWT_SECRET_KEY",
	"jwt.issuer":                  "JWT_ISSUER",
	"argon2.time":                 "ARGON2_TIME",
	"argon2.memory":               "ARGON2_MEMORY",
	"argon2.threads":              "ARGON2_THREADS",
	"argon2.key_length":           "ARGON2_KEY_LENGTH",
	"argon2.salt":                 "ARGON2_SALT",
	"server.port":                 "PORT",
	"server.read_timeout":         "SERVER_READ_TIMEOUT",
	"server.write_timeout":        "SERVER_WRITE_TIMEOUT",
	"server.shutdown_timeout":     "SERVER_SHUTDOWN_TIMEOUT",
}

// SetDefaults registers a default for every key Load reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("policy.lockout_threshold", 5)
	v.SetDefault("policy.lockout_window", 3600*time.Second)
	v.SetDefault("policy.session_timeout", 1800*time.Second)

	for key, value := range decimalDefaults {
		v.SetDefault(key, value)
	}
	v.SetDefault("loan.min_account_age", 90*24*time.Hour)
	v.SetDefault("fixed_deposit.month_days", 30)
	v.SetDefault("products.max_term_months", 1200)
	v.SetDefault("transfer.pending_ttl", 10*time.Minute)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.file_path", "bank_data.json")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret_key", "change-me")
	v.SetDefault("jwt.issuer", "ruralpay-ledger")

	v.SetDefault("argon2.time", 1)
	v.SetDefault("argon2.memory", 64*1024)
	v.SetDefault("argon2.threads", 4)
	v.SetDefault("argon2.key_length", 32)
	v.SetDefault("argon2.salt", "ruralpay-ledger-pepper")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
}

// Load reads .env (if present) and the environment into a Config.
func Load(v *viper.Viper) *Config {
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, env := range envBindings {
		v.BindEnv(key, env)
	}
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	return FromViper(v)
}

// FromViper builds a Config from already populated settings.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Policy: Policy{
			LockoutThreshold: v.GetInt("policy.lockout_threshold"),
			LockoutWindow:    v.GetDuration("policy.lockout_window"),
			SessionTimeout:   v.GetDuration("policy.session_timeout"),
		},
		Products: Products{
			LoanInterestRate:         getDecimal(v, "loan.interest_rate"),
			LoanMinAccountAge:        v.GetDuration("loan.min_account_age"),
			FixedDepositInterestRate: getDecimal(v, "fixed_deposit.interest_rate"),
			FixedDepositMonthDays:    v.GetInt("fixed_deposit.month_days"),
			MaxTermMonths:            v.GetInt("products.max_term_months"),
			PendingTransferTTL:       v.GetDuration("transfer.pending_ttl"),
		},
		Storage: StorageConfig{
			Driver:   v.GetString("storage.driver"),
			FilePath: v.GetString("storage.file_path"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey: v.GetString("jwt.secret_key"),
			Issuer:    v.GetString("jwt.issuer"),
		},
		Argon2: Argon2Config{
			Time:      v.GetUint32("argon2.time"),
			Memory:    v.GetUint32("argon2.memory"),
			Threads:   uint8(v.GetUint("argon2.threads")),
			KeyLength: v.GetUint32("argon2.key_length"),
			Salt:      v.GetString("argon2.salt"),
		},
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
	}
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	return FromViper(v)
}

func getDecimal(v *viper.Viper, key string) decimal.Decimal {
	d, err := decimal.NewFromString(v.GetString(key))
	if err != nil {
		log.Printf("Invalid decimal for %s, using default %s: %v", key, decimalDefaults[key], err)
		return decimal.RequireFromString(decimalDefaults[key])
	}
	return d
}
