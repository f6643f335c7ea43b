package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Hotel    HotelConfig
	Booking  BookingConfig
	Billing  BillingConfig
	Report   ReportConfig
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	ShutdownTimeout time.Duration
	AutoMigrate     bool
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
	RetryDelay      time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HotelConfig describes the property. Timezone decides what "today" means
// for overdue invoices and no-shows.
type HotelConfig struct {
	Timezone string
	Currency string
}

type BookingConfig struct {
	LockTTL             time.Duration
	NoShowSweepInterval time.Duration
}

type BillingConfig struct {
	DefaultDueDays       int
	TaxRate              string // percent, e.g. "12"
	OverdueSweepInterval time.Duration
}

type ReportConfig struct {
	CacheTTL time.Duration
}

// Load reads config.toml (if present) and PMS_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("PMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:            v.GetString("app.name"),
			Env:             v.GetString("app.env"),
			Port:            v.GetString("app.port"),
			ShutdownTimeout: v.GetDuration("app.shutdown_timeout"),
			AutoMigrate:     v.GetBool("app.auto_migrate"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnectRetries:  v.GetInt("database.connect_retries"),
			RetryDelay:      v.GetDuration("database.retry_delay"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Hotel: HotelConfig{
			Timezone: v.GetString("hotel.timezone"),
			Currency: v.GetString("hotel.currency"),
		},
		Booking: BookingConfig{
			LockTTL:             v.GetDuration("booking.lock_ttl"),
			NoShowSweepInterval: v.GetDuration("booking.no_show_sweep_interval"),
		},
		Billing: BillingConfig{
			DefaultDueDays:       v.GetInt("billing.default_due_days"),
			TaxRate:              v.GetString("billing.tax_rate"),
			OverdueSweepInterval: v.GetDuration("billing.overdue_sweep_interval"),
		},
		Report: ReportConfig{
			CacheTTL: v.GetDuration("report.cache_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "hotel-ledger"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.ShutdownTimeout == 0 {
		cfg.App.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "hotel"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.ConnectRetries == 0 {
		cfg.Database.ConnectRetries = 10
	}
	if cfg.Database.RetryDelay == 0 {
		cfg.Database.RetryDelay = 2 * time.Second
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Hotel.Timezone == "" {
		cfg.Hotel.Timezone = "UTC"
	}
	if cfg.Hotel.Currency == "" {
		cfg.Hotel.Currency = "INR"
	}
	if cfg.Booking.LockTTL == 0 {
		cfg.Booking.LockTTL = 10 * time.Second
	}
	if cfg.Booking.NoShowSweepInterval == 0 {
		cfg.Booking.NoShowSweepInterval = 15 * time.Minute
	}
	if cfg.Billing.DefaultDueDays == 0 {
		cfg.Billing.DefaultDueDays = 7
	}
	if cfg.Billing.TaxRate == "" {
		cfg.Billing.TaxRate = "0"
	}
	if cfg.Billing.OverdueSweepInterval == 0 {
		cfg.Billing.OverdueSweepInterval = time.Hour
	}
	if cfg.Report.CacheTTL == 0 {
		cfg.Report.CacheTTL = 5 * time.Minute
	}
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if _, err := time.LoadLocation(c.Hotel.Timezone); err != nil {
		return fmt.Errorf("hotel.timezone %q is not a known location: %w", c.Hotel.Timezone, err)
	}
	if len(c.Hotel.Currency) != 3 {
		return fmt.Errorf("hotel.currency must be a 3-letter ISO code, got %q", c.Hotel.Currency)
	}
	if c.Booking.LockTTL <= 0 || c.Booking.NoShowSweepInterval <= 0 {
		return fmt.Errorf("booking.lock_ttl and booking.no_show_sweep_interval must be positive")
	}
	if c.Billing.DefaultDueDays < 0 {
		return fmt.Errorf("billing.default_due_days cannot be negative")
	}
	rate, err := decimal.NewFromString(c.Billing.TaxRate)
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) || !rate.Equal(rate.Round(2)) {
		return fmt.Errorf("billing.tax_rate must be a percentage between 0 and 100 with at most 2 decimal places, got %q", c.Billing.TaxRate)
	}
	if c.Billing.OverdueSweepInterval <= 0 {
		return fmt.Errorf("billing.overdue_sweep_interval must be positive")
	}
	if c.Report.CacheTTL <= 0 {
		return fmt.Errorf("report.cache_ttl must be positive")
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Location resolves the hotel timezone. Load has already validated it.
func (h *HotelConfig) Location() *time.Location {
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (b *BillingConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(b.TaxRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
