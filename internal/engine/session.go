package engine

import (
	"context"
	"fmt"
	"tradelog/internal/metrics"
)

func (e *Engine) connect(ctx context.Context) error {
	e.setState(StateConnecting)

	err := e.withRetryVoid(ctx, func() error {
		return e.session.Connect(ctx)
	})
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к шлюзу %s: %w", e.cfg.GatewayAddr(), err)
	}

	e.mu.Lock()
	e.connectedAt = e.now()
	e.state = StatePolling
	e.mu.Unlock()

	e.logEntry().WithField("addr", e.cfg.GatewayAddr()).Info("Подключение к шлюзу установлено.")
	return nil
}

// ensureSession reconnects when the gateway dropped the session or, in
// daemon mode, when the session is older than reconnect_after.
func (e *Engine) ensureSession(ctx context.Context) error {
	e.mu.Lock()
	age := e.now().Sub(e.connectedAt)
	e.mu.Unlock()

	switch {
	case !e.session.Connected():
		e.logEntry().Warn("Нет соединения со шлюзом, переподключаемся.")
	case e.cfg.Runtime.Daemon && age >= e.cfg.Runtime.ReconnectAfter:
		e.logEntry().WithField("age", age.String()).Debug("Плановое переподключение к шлюзу.")
	default:
		return nil
	}

	metrics.Reconnects.Inc()
	e.disconnect()
	return e.connect(ctx)
}

func (e *Engine) disconnect() {
	if err := e.session.Disconnect(); err != nil {
		e.logEntry().WithError(err).Warn("Не удалось корректно отключиться от шлюза.")
	}
}
