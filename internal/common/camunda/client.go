package camunda

import (
	"context"
	"fmt"
	"time"

	"city-insights/internal/common/config"
	"city-insights/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// RetryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts up to MaxDelay.
func RetryWithBackoff(ctx context.Context, rc RetryConfig, log logger.Logger, name string, operation func(context.Context) error) error {
	attempts := rc.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := rc.BaseDelay

	var err error
	for i := 0; i < attempts; i++ {
		if err = operation(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxRetries":  attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", name, i+1, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if rc.MaxDelay > 0 && delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}

// Connect creates a Zeebe client and waits until the gateway answers a
// topology request.
func Connect(ctx context.Context, cfg config.CamundaConfig, rc RetryConfig, log logger.Logger) (zbc.Client, error) {
	requestTimeout := config.GetDuration(cfg.RequestTimeout)
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	var client zbc.Client
	err := RetryWithBackoff(ctx, rc, log, "zeebe connection", func(ctx context.Context) error {
		c, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.BrokerAddress,
			UsePlaintextConnection: true,
		})
		if err != nil {
			return fmt.Errorf("create zeebe client: %w", err)
		}

		tctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		if _, err := c.NewTopologyCommand().Send(tctx); err != nil {
			_ = c.Close()
			return fmt.Errorf("zeebe gateway %s unreachable: %w", cfg.BrokerAddress, err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
