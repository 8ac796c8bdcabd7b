package mqtt

import (
	"log"
	"strings"
	"sync"

	"github.com/barnybug/djtpms/pubsub"
	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// subscriptions is the part of the mqtt client the subscriber drives.
type subscriptions interface {
	SubscribeMultiple(filters map[string]byte, callback MQTT.MessageHandler) MQTT.Token
	Unsubscribe(topics ...string) MQTT.Token
}

type listener struct {
	C      chan *pubsub.Event
	topics []string
}

// Subscriber fans mqtt messages out to listeners. Broker topics are
// subscribed once however many listeners share them.
type Subscriber struct {
	name   string
	client subscriptions

	mu        sync.Mutex
	listeners []listener
	refs      map[string]int
}

func NewSubscriber(name string, client subscriptions) *Subscriber {
	return &Subscriber{name: name, client: client, refs: map[string]int{}}
}

func (self *Subscriber) ID() string {
	return self.name
}

func (self *Subscriber) publishHandler(_ MQTT.Client, msg MQTT.Message) {
	topic := strings.TrimPrefix(msg.Topic(), TopicPrefix)
	event := pubsub.Parse(string(msg.Payload()), topic)
	if event == nil {
		log.Printf("Ignoring unparseable message on %s", msg.Topic())
		return
	}
	event.SetRetained(msg.Retained())

	self.mu.Lock()
	defer self.mu.Unlock()
	for _, l := range self.listeners {
		for _, t := range l.topics {
			if t == event.Topic {
				l.C <- event
				break
			}
		}
	}
}

func filters(topics []string) map[string]byte {
	subs := map[string]byte{}
	for _, t := range topics {
		subs[TopicPrefix+t] = 1 // QOS
	}
	return subs
}

func (self *Subscriber) subscribe(subs map[string]byte) {
	if len(subs) == 0 {
		return
	}
	// nil callback: messages go to the default publish handler
	if token := self.client.SubscribeMultiple(subs, nil); token.Wait() && token.Error() != nil {
		log.Println("Error subscribing:", token.Error())
	}
}

func (self *Subscriber) connectHandler(MQTT.Client) {
	self.mu.Lock()
	topics := make([]string, 0, len(self.refs))
	for t := range self.refs {
		topics = append(topics, t)
	}
	self.mu.Unlock()

	if len(topics) > 0 {
		log.Println("Connected, subscribing:", topics)
	}
	self.subscribe(filters(topics))
}

func (self *Subscriber) Subscribe(topics ...string) <-chan *pubsub.Event {
	l := listener{C: make(chan *pubsub.Event, 16), topics: topics}

	var fresh []string
	self.mu.Lock()
	for _, t := range topics {
		if self.refs[t] == 0 {
			fresh = append(fresh, t)
		}
		self.refs[t]++
	}
	self.listeners = append(self.listeners, l)
	self.mu.Unlock()

	self.subscribe(filters(fresh))
	return l.C
}

func (self *Subscriber) Close(channel <-chan *pubsub.Event) {
	var unused []string
	self.mu.Lock()
	kept := self.listeners[:0]
	for _, l := range self.listeners {
		if channel != (<-chan *pubsub.Event)(l.C) {
			kept = append(kept, l)
			continue
		}
		for _, t := range l.topics {
			self.refs[t]--
			if self.refs[t] == 0 {
				delete(self.refs, t)
				unused = append(unused, TopicPrefix+t)
			}
		}
		close(l.C)
	}
	self.listeners = kept
	self.mu.Unlock()

	if len(unused) == 0 {
		return
	}
	if token := self.client.Unsubscribe(unused...); token.Wait() && token.Error() != nil {
		log.Println("Error unsubscribing:", token.Error())
	}
}
