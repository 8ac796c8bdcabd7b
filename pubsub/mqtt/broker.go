package mqtt

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/barnybug/djtpms/pubsub"
	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// All events are published under this topic prefix.
const TopicPrefix = "djtpms/"

type Broker struct {
	url        string
	client     MQTT.Client
	subscriber *Subscriber
}

func clientID(name string) string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("djtpms/%s-%s-%d", name, hostname, os.Getpid())
}

// NewBroker connects to the mqtt broker at url, eg tcp://127.0.0.1:1883.
func NewBroker(url, name string) *Broker {
	self := &Broker{url: url}
	self.subscriber = NewSubscriber("mqtt: "+url, nil)

	opts := MQTT.NewClientOptions().
		AddBroker(url).
		SetClientID(clientID(name)).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second).
		SetDefaultPublishHandler(self.subscriber.publishHandler).
		SetOnConnectHandler(self.subscriber.connectHandler).
		SetConnectionLostHandler(func(_ MQTT.Client, err error) {
			log.Println("mqtt connection lost:", err)
		})

	self.client = MQTT.NewClient(opts)
	self.subscriber.client = self.client
	if token := self.client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln("Couldn't connect to mqtt:", token.Error())
	}
	return self
}

func (self *Broker) Subscriber() pubsub.Subscriber {
	return self.subscriber
}

func (self *Broker) Publisher() pubsub.Publisher {
	return &Publisher{url: self.url, client: self.client}
}
