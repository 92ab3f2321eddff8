package health

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultTimeout = 2 * time.Second

// Probe checks a single dependency.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// Result is the outcome of one probe.
type Result struct {
	Name     string        `json:"name"`
	Healthy  bool          `json:"healthy"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Report aggregates probe results.
type Report struct {
	Healthy bool     `json:"healthy"`
	Results []Result `json:"results"`
}

// Checker runs probes concurrently.
type Checker struct {
	probes  []Probe
	timeout time.Duration
	logger  *zap.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithTimeout bounds each probe.
func WithTimeout(d time.Duration) CheckerOption {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChecker creates a Checker for the given probes.
func NewChecker(logger *zap.Logger, probes []Probe, opts ...CheckerOption) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checker{
		probes:  probes,
		timeout: defaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes every probe and reports healthy only if all of them pass.
// A checker without probes is healthy.
func (c *Checker) Run(ctx context.Context) Report {
	results := make([]Result, len(c.probes))

	var wg sync.WaitGroup
	for i, probe := range c.probes {
		wg.Add(1)
		go func(i int, probe Probe) {
			defer wg.Done()
			results[i] = c.check(ctx, probe)
		}(i, probe)
	}
	wg.Wait()

	report := Report{Healthy: true, Results: results}
	for _, r := range results {
		if !r.Healthy {
			report.Healthy = false
		}
	}
	return report
}

func (c *Checker) check(ctx context.Context, probe Probe) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := probe.Check(ctx)
	res := Result{Name: probe.Name(), Healthy: err == nil, Duration: time.Since(start)}
	if err != nil {
		res.Error = err.Error()
		c.logger.Warn("probe failed", zap.String("probe", res.Name), zap.Error(err))
	} else {
		c.logger.Debug("probe passed", zap.String("probe", res.Name), zap.Duration("duration", res.Duration))
	}
	return res
}

// Pinger is the part of *redis.Client used by RedisProbe.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisProbe pings Redis.
type RedisProbe struct {
	Client Pinger
}

func (p RedisProbe) Name() string { return "redis" }

func (p RedisProbe) Check(ctx context.Context) error {
	if err := p.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// PostgresProbe pings a Postgres database.
type PostgresProbe struct {
	DB *sql.DB
}

// OpenPostgres opens a pool for dsn without connecting.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(time.Minute)
	return db, nil
}

func (p PostgresProbe) Name() string { return "postgres" }

func (p PostgresProbe) Check(ctx context.Context) error {
	if err := p.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
