package pubsub

import (
	"encoding/json"
	"log"
	"time"

	"github.com/barnybug/djtpms/util"
)

// TimeFormat of the timestamp field on the wire.
const TimeFormat = "2006-01-02 15:04:05.000000"

type Fields map[string]interface{}

// Event is a message on a topic. On the wire it is a flat json object of the
// fields plus topic and timestamp.
type Event struct {
	Topic     string
	Timestamp time.Time
	Fields    Fields
	Retained  bool
	// Set once a publisher has delivered the event
	Published *util.Event
}

// NewEvent on topic. A timestamp field, as parsed off the wire, becomes the
// event's Timestamp; otherwise it is now.
func NewEvent(topic string, fields Fields) *Event {
	ev := &Event{
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Fields:    fields,
		Published: util.NewEvent(),
	}
	if ev.Fields == nil {
		ev.Fields = Fields{}
	}
	if ts, ok := ev.Fields["timestamp"].(string); ok {
		delete(ev.Fields, "timestamp")
		if t, err := time.Parse(TimeFormat, ts); err == nil {
			ev.Timestamp = t
		}
	}
	return ev
}

// Parse a json event. fallback is the topic when the message carries none,
// as when it comes from a broker topic. Returns nil if msg is not an event.
func Parse(msg string, fallback string) *Event {
	var fields Fields
	if err := json.Unmarshal([]byte(msg), &fields); err != nil {
		return nil
	}
	topic, ok := fields["topic"].(string)
	if ok {
		delete(fields, "topic")
	} else {
		topic = fallback
	}
	if topic == "" {
		return nil
	}
	return NewEvent(topic, fields)
}

func (event *Event) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(event.Fields)+2)
	for k, v := range event.Fields {
		flat[k] = v
	}
	flat["topic"] = event.Topic
	flat["timestamp"] = event.Timestamp.Format(TimeFormat)
	return json.Marshal(flat)
}

func (event *Event) Bytes() []byte {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error encoding %s event: %s", event.Topic, err)
	}
	return data
}

func (event *Event) String() string {
	return string(event.Bytes())
}

func (event *Event) StringField(name string) string {
	s, _ := event.Fields[name].(string)
	return s
}

// FloatField returns a numeric field, or 0. Numbers parsed from json are
// float64, those set locally may be ints.
func (event *Event) FloatField(name string) float64 {
	switch n := event.Fields[name].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func (event *Event) IntField(name string) int64 {
	return int64(event.FloatField(name))
}

func (event *Event) SetField(name string, value interface{}) {
	event.Fields[name] = value
}

func (event *Event) SetRetained(retained bool) {
	event.Retained = retained
}

func (event *Event) Device() string {
	return event.StringField("device")
}

func (event *Event) Source() string {
	return event.StringField("source")
}
