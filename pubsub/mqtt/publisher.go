package mqtt

import (
	"log"

	"github.com/barnybug/djtpms/pubsub"
	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// Publisher for mqtt
type Publisher struct {
	url    string
	client MQTT.Client
}

func (pub *Publisher) ID() string {
	return "mqtt: " + pub.url
}

// Emit an event at QOS 1, blocking until the broker has acknowledged it.
func (pub *Publisher) Emit(ev *pubsub.Event) {
	token := pub.client.Publish(TopicPrefix+ev.Topic, 1, ev.Retained, ev.Bytes())
	if token.Wait() && token.Error() != nil {
		log.Println("Error publishing:", token.Error())
	}
	ev.Published.Set()
}
