package ws

import (
	"context"
	"fmt"
	"tradelog/internal/broker"
	"tradelog/internal/models"

	"github.com/gorilla/websocket"
)

// SnapshotFills asks the gateway to replay its executions and returns
// everything buffered once the replay for this request has ended.
func (w *Client) SnapshotFills(ctx context.Context) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}

	reqID := w.reqID.Add(1)
	result := make(chan error, 1)

	w.mu.Lock()
	conn := w.conn
	if !w.connected || conn == nil {
		w.mu.Unlock()
		return models.Snapshot{}, broker.ErrNotConnected
	}
	w.waiters[reqID] = result
	w.mu.Unlock()

	if err := w.write(conn, RequestMessage{Op: "reqExecutions", ReqID: reqID}); err != nil {
		w.dropConnection(conn, broker.ErrNotConnected)
		return models.Snapshot{}, fmt.Errorf("Не удалось запросить исполнения: %w: %w", broker.ErrNotConnected, err)
	}

	select {
	case err := <-result:
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("Запрос исполнений reqId=%d: %w", reqID, err)
		}
	case <-ctx.Done():
		w.finishRequest(reqID, nil)
		return models.Snapshot{}, fmt.Errorf("Не дождались конца исполнений reqId=%d: %w", reqID, ctx.Err())
	}

	return w.snapshot(), nil
}

func (w *Client) snapshot() models.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := models.Snapshot{
		Fills:       make([]models.Fill, 0, len(w.fillOrder)),
		Commissions: make([]models.CommissionReport, 0, len(w.commissionOrder)),
	}
	for _, execID := range w.fillOrder {
		snap.Fills = append(snap.Fills, w.fills[execID])
	}
	for _, execID := range w.commissionOrder {
		snap.Commissions = append(snap.Commissions, w.commissions[execID])
	}
	return snap
}

func (w *Client) finishRequest(reqID int64, err error) {
	w.mu.Lock()
	ch, ok := w.waiters[reqID]
	delete(w.waiters, reqID)
	w.mu.Unlock()

	if ok {
		ch <- err
	}
}

func (w *Client) write(conn *websocket.Conn, msg any) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return conn.WriteJSON(msg)
}
