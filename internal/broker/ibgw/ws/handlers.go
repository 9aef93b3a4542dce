package ws

import (
	"encoding/json"
	"tradelog/internal/broker"
	"tradelog/internal/models"

	"github.com/gorilla/websocket"
)

func (w *Client) handleNextValidID(msg Message) {
	var data nextValidIDData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать nextValidId.")
		return
	}

	w.mu.Lock()
	w.nextValidID = data.OrderID
	once, ready := w.readyOnce, w.ready
	w.mu.Unlock()

	if once != nil {
		once.Do(func() { close(ready) })
	}
}

func (w *Client) handleExecDetails(msg Message) {
	var fill models.Fill
	if err := json.Unmarshal(msg.Data, &fill); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать execDetails.")
		return
	}

	execID := fill.Execution.ExecID
	if execID == "" {
		w.logEntry().Warn("execDetails без execId пропущен.")
		return
	}

	w.logEntry().WithFields(map[string]interface{}{
		"req_id":   msg.ReqID,
		"sec_type": fill.Contract.SecType,
		"symbol":   fill.Contract.LocalSymbol,
		"side":     fill.Execution.Side,
		"exec_id":  execID,
		"order_id": fill.Execution.OrderID,
		"price":    fill.Execution.Price,
		"qty":      fill.Execution.Shares,
		"ts":       fill.Execution.Time,
	}).Debug("execDetails")

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.fills[execID]; !ok {
		w.fillOrder = append(w.fillOrder, execID)
	}
	w.fills[execID] = fill
	if fill.Commission != nil {
		w.storeCommissionLocked(*fill.Commission)
	}
}

func (w *Client) handleCommissionReport(msg Message) {
	var report models.CommissionReport
	if err := json.Unmarshal(msg.Data, &report); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать commissionReport.")
		return
	}
	if report.ExecID == "" {
		return
	}

	w.logEntry().WithFields(map[string]interface{}{
		"exec_id":    report.ExecID,
		"commission": report.Commission,
	}).Debug("commissionReport")

	w.mu.Lock()
	w.storeCommissionLocked(report)
	w.mu.Unlock()
}

func (w *Client) storeCommissionLocked(report models.CommissionReport) {
	if _, ok := w.commissions[report.ExecID]; !ok {
		w.commissionOrder = append(w.commissionOrder, report.ExecID)
	}
	w.commissions[report.ExecID] = report
}

func (w *Client) handleError(conn *websocket.Conn, msg Message) {
	var data errorData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать error.")
		return
	}

	gwErr := &broker.GatewayError{Code: data.Code, Message: data.Message}
	entry := w.logEntry().WithFields(map[string]interface{}{
		"code":   data.Code,
		"req_id": msg.ReqID,
	})

	switch {
	case broker.Informational(data.Code):
		entry.Debug(data.Message)
	case data.Code == broker.CodeNotConnected:
		entry.Warn("Шлюз потерял соединение.")
		w.dropConnection(conn, gwErr)
	default:
		entry.Error(data.Message)
		if msg.ReqID > 0 {
			w.finishRequest(msg.ReqID, gwErr)
		}
	}
}
