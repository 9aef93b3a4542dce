package engine

import (
	"context"
	"errors"
	"math"
	"time"
	"tradelog/internal/broker"
)

func (e *Engine) withRetryVoid(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := e.retryBase
	for i := 0; i < 5; i++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := time.Duration(math.Min(float64(backoff), float64(e.retryBase*30)))
		if isGatewayRefusal(lastErr) {
			wait = time.Duration(math.Min(float64(backoff*4), float64(e.retryBase*30)))
		}
		e.logEntry().WithError(lastErr).Warn("Ошибка, повторяем запрос.")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return lastErr
}

// isGatewayRefusal reports errors where the gateway answered but refused
// the session, which needs a longer pause than a dropped dial.
func isGatewayRefusal(err error) bool {
	var gwErr *broker.GatewayError
	return errors.As(err, &gwErr)
}
