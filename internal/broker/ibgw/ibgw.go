// Package ibgw opens sessions against the IB gateway bridge over either of
// its transports.
package ibgw

import (
	"fmt"
	"tradelog/internal/broker"
	"tradelog/internal/broker/ibgw/rest"
	"tradelog/internal/broker/ibgw/ws"
	"tradelog/internal/config"
	"tradelog/internal/logger"
)

func New(cfg *config.Config, log *logger.Logger) (broker.Session, error) {
	gw := cfg.Gateway

	switch gw.Transport {
	case config.TransportREST:
		baseURL := fmt.Sprintf("http://%s", cfg.GatewayAddr())
		return rest.New(baseURL, gw.ClientID, gw.ApiKey, gw.Secret, gw.ReadyTimeout, log), nil
	case config.TransportWS:
		client, err := ws.New(ws.StreamURL(gw.Host, gw.Port, gw.ClientID), gw.ApiKey, gw.Secret, gw.ReadyTimeout, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("Некорректный транспорт шлюза: %s", gw.Transport)
	}
}
