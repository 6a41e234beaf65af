package autopaho

import (
	"testing"

	"github.com/eclipse/paho.golang/paho"
	"github.com/stretchr/testify/assert"

	"github.com/nlowe/miele/mqtt"
)

func TestSubscribeOptions(t *testing.T) {
	got := subscribeOptions(mqtt.Subscription{
		Topic:   "miele/dw/raw/signalDoor",
		Options: mqtt.ReadOptions{QoS: mqtt.QOSExactlyOnce, NoLocal: true},
	})

	assert.Equal(t, paho.SubscribeOptions{Topic: "miele/dw/raw/signalDoor", QoS: 2, NoLocal: true}, got)
}

func TestForget(t *testing.T) {
	c := &Conn{
		r: paho.NewStandardRouter(),
		subscriptions: map[string]paho.SubscribeOptions{
			"miele/dw/raw/state":   {Topic: "miele/dw/raw/state"},
			"miele/dw/raw/phaseId": {Topic: "miele/dw/raw/phaseId"},
		},
	}

	c.forget("miele/dw/raw/state")

	assert.Equal(t, map[string]paho.SubscribeOptions{"miele/dw/raw/phaseId": {Topic: "miele/dw/raw/phaseId"}}, c.subscriptions)
}
