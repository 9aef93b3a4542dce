package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
	"tradelog/internal/logger"
	"tradelog/internal/models"

	"github.com/gorilla/websocket"
)

type Client struct {
	url          string
	apiKey       string
	secret       string
	readyTimeout time.Duration
	log          *logger.Logger

	mu              sync.Mutex
	conn            *websocket.Conn
	ready           chan struct{}
	readyOnce       *sync.Once
	connected       bool
	nextValidID     int64
	fills           map[string]models.Fill
	fillOrder       []string
	commissions     map[string]models.CommissionReport
	commissionOrder []string
	waiters         map[int64]chan error

	writeMu sync.Mutex
	reqID   atomic.Int64
}

const (
	msgNextValidID      = "nextValidId"
	msgExecDetails      = "execDetails"
	msgExecDetailsEnd   = "execDetailsEnd"
	msgCommissionReport = "commissionReport"
	msgError            = "error"
)

type Message struct {
	Type  string          `json:"type"`
	ReqID int64           `json:"reqId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type AuthMessage struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type RequestMessage struct {
	Op    string `json:"op"`
	ReqID int64  `json:"reqId"`
}

type nextValidIDData struct {
	OrderID int64 `json:"orderId"`
}

type errorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
