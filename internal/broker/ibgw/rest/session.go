package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"tradelog/internal/broker"
)

var _ broker.Session = (*Client)(nil)

// Connect polls the session endpoint until the gateway hands out a valid
// order id or the ready timeout expires.
func (c *Client) Connect(ctx context.Context) error {
	if c.Connected() {
		return nil
	}

	c.logEntry().WithField("url", c.baseURL).Info("Подключение к шлюзу.")

	ctx, cancel := context.WithTimeout(ctx, c.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		info, err := doRequest[sessionInfo](ctx, c, http.MethodGet, "/v1/session", c.params(), nil)
		switch {
		case err == nil && info.Connected && info.NextValidID > 0:
			c.mu.Lock()
			c.connected = true
			c.nextValidID = info.NextValidID
			c.mu.Unlock()
			c.logEntry().WithField("next_valid_id", info.NextValidID).Info("Шлюз готов.")
			return nil
		case err != nil && !broker.Disconnected(err):
			c.logEntry().WithError(err).Debug("Шлюз пока не отвечает.")
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("Шлюз не готов за %s: %w", c.readyTimeout, broker.ErrNotConnected)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) Disconnect() error {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if !wasConnected {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := doRequest[struct{}](ctx, c, http.MethodDelete, "/v1/session", c.params(), nil); err != nil {
		return fmt.Errorf("Не удалось закрыть сессию: %w", err)
	}

	c.logEntry().Info("Сессия закрыта.")
	return nil
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) markDisconnected(err error) {
	if !broker.Disconnected(err) {
		return
	}
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.logEntry().WithError(err).Warn("Шлюз потерял соединение.")
}

func (c *Client) params() url.Values {
	return url.Values{"clientId": []string{strconv.Itoa(c.clientID)}}
}
