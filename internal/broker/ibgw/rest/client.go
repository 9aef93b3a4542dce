package rest

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
	"tradelog/internal/logger"

	"github.com/sirupsen/logrus"
)

type Client struct {
	baseURL      string
	clientID     int
	apiKey       string
	secret       string
	readyTimeout time.Duration
	pollEvery    time.Duration
	httpClient   *http.Client
	log          *logger.Logger

	mu          sync.Mutex
	connected   bool
	nextValidID int64
	reqID       atomic.Int64
}

func New(baseURL string, clientID int, apiKey, secret string, readyTimeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		apiKey:       apiKey,
		secret:       secret,
		readyTimeout: readyTimeout,
		pollEvery:    250 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

func (c *Client) logEntry() *logrus.Entry {
	return c.log.WithComponent("ibgw_rest").WithField("client_id", c.clientID)
}
