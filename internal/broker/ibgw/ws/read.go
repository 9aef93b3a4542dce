package ws

import (
	"encoding/json"
	"tradelog/internal/broker"

	"github.com/gorilla/websocket"
)

func (w *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	w.logEntry().Debug("readLoop запущен.")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if w.current(conn) {
				w.logEntry().WithError(err).Warn("Ошибка чтения WS.")
				w.dropConnection(conn, broker.ErrNotConnected)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать WS сообщение.")
			continue
		}

		switch msg.Type {
		case msgNextValidID:
			w.handleNextValidID(msg)
		case msgExecDetails:
			w.handleExecDetails(msg)
		case msgCommissionReport:
			w.handleCommissionReport(msg)
		case msgExecDetailsEnd:
			w.finishRequest(msg.ReqID, nil)
		case msgError:
			w.handleError(conn, msg)
		default:
			continue
		}
	}
}
