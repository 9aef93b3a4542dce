package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"tradelog/internal/broker"
	"tradelog/internal/models"
)

func (c *Client) SnapshotFills(ctx context.Context) (models.Snapshot, error) {
	if !c.Connected() {
		return models.Snapshot{}, broker.ErrNotConnected
	}

	reqID := c.reqID.Add(1)
	params := c.params()
	params.Set("reqId", strconv.FormatInt(reqID, 10))

	result, err := doRequest[executionsResult](ctx, c, http.MethodGet, "/v1/executions", params, nil)
	if err != nil {
		c.markDisconnected(err)
		return models.Snapshot{}, fmt.Errorf("Не удалось получить исполнения: %w", err)
	}

	c.logEntry().WithFields(map[string]interface{}{
		"req_id":      reqID,
		"fills":       len(result.Fills),
		"commissions": len(result.CommissionReports),
	}).Debug("Получены исполнения.")

	return models.Snapshot{
		Fills:       result.Fills,
		Commissions: result.CommissionReports,
	}, nil
}
