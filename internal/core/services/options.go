package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options carries the collaborators shared by the services. Zero values are
// replaced by defaults in newOptions.
type Options struct {
	Logger         *zap.Logger
	Now            func() time.Time
	NewID          func() uuid.UUID
	Location       *time.Location
	Currency       string
	LockTTL        time.Duration
	CacheTTL       time.Duration
	DefaultDueDays int
	TaxRate        decimal.Decimal
}

type Option func(*Options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(o *Options) {
		o.NewID = newID
	}
}

// WithLocation sets the hotel time zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithCurrency(currency string) Option {
	return func(o *Options) {
		o.Currency = currency
	}
}

func WithLockTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.LockTTL = ttl
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.CacheTTL = ttl
	}
}

func WithDefaultDueDays(days int) Option {
	return func(o *Options) {
		o.DefaultDueDays = days
	}
}

// WithTaxRate sets the percentage applied to generated invoice lines.
func WithTaxRate(rate decimal.Decimal) Option {
	return func(o *Options) {
		o.TaxRate = rate
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Logger:         zap.NewNop(),
		Now:            time.Now,
		NewID:          uuid.New,
		Location:       time.UTC,
		Currency:       "INR",
		LockTTL:        10 * time.Second,
		CacheTTL:       5 * time.Minute,
		DefaultDueDays: 7,
		TaxRate:        decimal.Zero,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o Options) today() time.Time {
	return o.Now().In(o.Location)
}
