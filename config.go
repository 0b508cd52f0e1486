package threadpool

import (
	"log/slog"
	"runtime"
	"strconv"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/threadpool/metrics"
)

// MaxPoolSize is the largest number of workers a Pool may be created with.
const MaxPoolSize = 200

// config holds Pool configuration.
type config struct {
	// Workers defines the fixed number of worker goroutines.
	// Default: runtime.NumCPU(), capped at MaxPoolSize.
	Workers int

	// MaxQueueLength caps the number of queued (not yet running) tasks.
	// Submit returns ErrResourceExhausted while the queue is at the cap.
	// Default: 0 (unbounded)
	MaxQueueLength int

	// Metrics receives pool instruments.
	// Default: metrics.NoopProvider
	Metrics metrics.Provider

	// ErrorHandler receives every task failure, tagged with the task submission index.
	// It is called on the worker goroutine and must not block for long.
	// Default: log through Logger at error level.
	ErrorHandler func(error)

	// Logger is used by the default ErrorHandler and for lifecycle events.
	// Default: slog.Default()
	Logger *slog.Logger
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Workers:        min(runtime.NumCPU(), MaxPoolSize),
		MaxQueueLength: 0, // unbounded
		Metrics:        metrics.NoopProvider{},
		ErrorHandler:   nil,
		Logger:         nil,
	}
}

// validateConfig checks invariants that options cannot check on their own.
func validateConfig(cfg *config) error {
	if cfg.Workers < 1 || cfg.Workers > MaxPoolSize {
		return errorc.With(
			ErrInvalidConfig,
			errorc.String("workers", strconv.Itoa(cfg.Workers)),
			errorc.String("allowed", "1.."+strconv.Itoa(MaxPoolSize)),
		)
	}
	if cfg.MaxQueueLength < 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("max_queue_length", strconv.Itoa(cfg.MaxQueueLength)))
	}
	return nil
}

// Option configures a Pool. Use New(ctx, opts...) to construct a Pool via options.
type Option func(*config) error

// WithWorkers sets the fixed number of workers (1..MaxPoolSize).
// The range is checked by New, so the same error is reported however the size was set.
func WithWorkers(n int) Option {
	return func(cfg *config) error { cfg.Workers = n; return nil }
}

// WithMaxQueueLength bounds the number of queued tasks (must be > 0).
func WithMaxQueueLength(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMaxQueueLength requires n > 0"))
		}
		cfg.MaxQueueLength = n
		return nil
	}
}

// WithMetrics attaches a metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithErrorHandler sets the callback receiving task failures.
func WithErrorHandler(fn func(error)) Option {
	return func(cfg *config) error { cfg.ErrorHandler = fn; return nil }
}

// WithLogger sets the logger used for lifecycle events and by the default error handler.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error { cfg.Logger = l; return nil }
}
