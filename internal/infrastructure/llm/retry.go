package llm

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
)

// RetryConfig controls transport retries. These are independent of the
// validation retries driven by the extraction service.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0
}

// DefaultRetryConfig returns 3 retries starting at 1s, capped at 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// RetryingClient decorates an LLMClient with exponential backoff on
// transient errors. Parse errors and 4xx responses are returned at once.
type RetryingClient struct {
	next   ports.LLMClient
	cfg    RetryConfig
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingClient wraps next.
func NewRetryingClient(next ports.LLMClient, cfg RetryConfig, logger *zap.Logger) *RetryingClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return &RetryingClient{
		next:   next,
		cfg:    cfg,
		logger: logger.Named("llm-retry"),
		sleep:  sleepContext,
	}
}

// Extract implements ports.LLMClient.
func (c *RetryingClient) Extract(ctx context.Context, instructions string, text string) (*entities.RawExtraction, error) {
	delay := c.cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		out, err := c.next.Extract(ctx, instructions, text)
		if err == nil || !IsRetryable(err) || attempt >= c.cfg.MaxRetries {
			return out, err
		}

		wait := applyJitter(delay, c.cfg.JitterFactor)
		c.logger.Warn("transient LLM error, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))

		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		delay = time.Duration(float64(delay) * c.cfg.Multiplier)
		if c.cfg.MaxDelay > 0 && delay > c.cfg.MaxDelay {
			delay = c.cfg.MaxDelay
		}
	}
}

func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
