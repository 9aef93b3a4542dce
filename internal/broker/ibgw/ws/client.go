package ws

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"
	"tradelog/internal/broker"
	"tradelog/internal/logger"
	"tradelog/internal/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var _ broker.Session = (*Client)(nil)

// StreamURL is the gateway stream endpoint for a client id.
func StreamURL(host string, port, clientID int) string {
	u := url.URL{
		Scheme:   "ws",
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/v1/stream",
		RawQuery: url.Values{"clientId": []string{strconv.Itoa(clientID)}}.Encode(),
	}
	return u.String()
}

func New(rawURL, apiKey, secret string, readyTimeout time.Duration, log *logger.Logger) (*Client, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("Некорректный адрес WS: %w", err)
	}

	return &Client{
		url:          rawURL,
		apiKey:       apiKey,
		secret:       secret,
		readyTimeout: readyTimeout,
		log:          log,
		fills:        map[string]models.Fill{},
		commissions:  map[string]models.CommissionReport{},
		waiters:      map[int64]chan error{},
	}, nil
}

// Connect dials the gateway and blocks until it reports the next valid
// order id, which is its ready signal.
func (w *Client) Connect(ctx context.Context) error {
	if w.Connected() {
		return nil
	}

	w.mu.Lock()
	stale := w.conn
	w.conn = nil
	w.mu.Unlock()
	if stale != nil {
		_ = stale.Close()
	}

	w.logEntry().WithField("url", w.url).Info("Подключение к WS.")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к WS: %w", err)
	}
	conn.SetReadLimit(2 << 20)

	ready := make(chan struct{})
	done := make(chan struct{})

	w.mu.Lock()
	w.conn = conn
	w.ready = ready
	w.readyOnce = &sync.Once{}
	w.mu.Unlock()

	if w.apiKey != "" && w.secret != "" {
		if err := w.authenticate(conn); err != nil {
			w.dropConnection(conn, broker.ErrNotConnected)
			return err
		}
	}

	go w.readLoop(conn, done)

	timer := time.NewTimer(w.readyTimeout)
	defer timer.Stop()

	select {
	case <-ready:
	case <-done:
		return fmt.Errorf("WS закрыт до готовности шлюза: %w", broker.ErrNotConnected)
	case <-timer.C:
		w.dropConnection(conn, broker.ErrNotConnected)
		return fmt.Errorf("Шлюз не готов за %s: %w", w.readyTimeout, broker.ErrNotConnected)
	case <-ctx.Done():
		w.dropConnection(conn, ctx.Err())
		return ctx.Err()
	}

	w.mu.Lock()
	if w.conn != conn {
		w.mu.Unlock()
		return broker.ErrNotConnected
	}
	w.connected = true
	nextValidID := w.nextValidID
	w.mu.Unlock()

	w.logEntry().WithField("next_valid_id", nextValidID).Info("WS соединение установлено.")
	return nil
}

func (w *Client) Disconnect() error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return nil
	}

	w.dropConnection(conn, broker.ErrNotConnected)
	w.logEntry().Info("WS соединение закрыто.")
	return nil
}

func (w *Client) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// dropConnection forgets conn if it is still current and fails every
// outstanding request with err.
func (w *Client) dropConnection(conn *websocket.Conn, err error) {
	w.mu.Lock()
	if w.conn != conn {
		w.mu.Unlock()
		return
	}
	w.conn = nil
	w.connected = false
	waiters := w.waiters
	w.waiters = map[int64]chan error{}
	w.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}

	w.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	w.writeMu.Unlock()
	_ = conn.Close()
}

func (w *Client) current(conn *websocket.Conn) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn == conn
}

func (w *Client) logEntry() *logrus.Entry {
	return w.log.WithComponent("ibgw_ws")
}
