package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/nlowe/miele/config"
	mieleLog "github.com/nlowe/miele/log"
	mqttAdapter "github.com/nlowe/miele/mqtt/adapter/autopaho"
)

func configureMQTT(ctx context.Context, cfg config.MQTTConfig) (*mqttAdapter.Conn, error) {
	log := mieleLog.ForComponent("mqtt")

	brokerURL, err := url.Parse(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse broker url: %w", err)
	}

	mqttConfig := autopaho.ClientConfig{
		ServerUrls: []*url.URL{brokerURL},
		KeepAlive:  cfg.KeepAlive,

		// Keep the session for a minute so reports published during a short reconnect are not lost.
		SessionExpiryInterval: 60,

		ConnectUsername: cfg.Username,
		ConnectPassword: []byte(cfg.Password),

		OnConnectionUp: func(*autopaho.ConnectionManager, *paho.Connack) {
			log.Info("mqtt connected")
		},
		OnConnectError: func(err error) {
			log.With(mieleLog.Error(err)).Error("mqtt connection error")
		},

		ClientConfig: paho.ClientConfig{
			ClientID: cfg.ClientID,
			OnClientError: func(err error) {
				log.With(mieleLog.Error(err)).Error("mqtt client error")
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				log := log.With(slog.Int("reason", int(d.ReasonCode)))

				if d.Properties != nil {
					log = log.With(slog.String("reason_string", d.Properties.ReasonString))
				}

				log.Warn("mqtt server requested disconnect")
			},
		},
	}

	return mqttAdapter.Dial(ctx, mqttConfig)
}
