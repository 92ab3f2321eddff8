package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrInvalidBatchSize is returned when the configured batch size is not positive.
var ErrInvalidBatchSize = errors.New("batch size must be positive")

// Client is the part of *redis.Client used for publishing.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Config controls the publisher.
type Config struct {
	Enabled   bool
	Channel   string
	BatchSize int
}

// Publisher batches messages onto a Redis channel.
type Publisher struct {
	cfg    Config
	client Client
	logger *zap.Logger
}

// New creates a Publisher. A nil client is allowed when publishing is disabled.
func New(cfg Config, client Client, logger *zap.Logger) (*Publisher, error) {
	if cfg.BatchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}
	if cfg.Enabled && client == nil {
		return nil, errors.New("publishing is enabled but no client was provided")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{cfg: cfg, client: client, logger: logger}, nil
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Enabled reports whether messages leave the process.
func (p *Publisher) Enabled() bool {
	return p.cfg.Enabled
}

// Publish encodes messages and sends them as JSON arrays of at most
// BatchSize elements, one channel message per batch.
func (p *Publisher) Publish(ctx context.Context, messages ...any) error {
	if len(messages) == 0 {
		return nil
	}
	if !p.cfg.Enabled {
		p.logger.Debug("publishing disabled, dropping messages", zap.Int("count", len(messages)))
		return nil
	}

	batches := 0
	for start := 0; start < len(messages); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(messages))
		payload, err := json.Marshal(messages[start:end])
		if err != nil {
			return fmt.Errorf("encode batch: %w", err)
		}
		if err := p.client.Publish(ctx, p.cfg.Channel, payload).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", p.cfg.Channel, err)
		}
		batches++
	}

	p.logger.Debug("messages published",
		zap.String("channel", p.cfg.Channel),
		zap.Int("count", len(messages)),
		zap.Int("batches", batches),
	)
	return nil
}
