package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/barnybug/djtpms/pubsub"
	"github.com/pkg/errors"
)

var replyTopic = func() string {
	return fmt.Sprintf("_rpc.%x", rand.Int63())
}

// sendQuery publishes query, asking for answers on replyTo.
func sendQuery(query, source, replyTo string) {
	Publisher.Emit(pubsub.NewEvent("query", pubsub.Fields{
		"source":   source,
		"query":    query,
		"reply_to": replyTo,
	}))
}

// ask subscribes to a fresh reply topic before sending query on it.
func ask(query string) <-chan *pubsub.Event {
	replyTo := replyTopic()
	answers := Subscriber.Subscribe(replyTo)
	sendQuery(query, "rpc", replyTo)
	return answers
}

// Query collects the answers to query from every service that replies within
// timeout.
func Query(query string, timeout time.Duration) []*pubsub.Event {
	answers := ask(query)
	defer Subscriber.Close(answers)

	var events []*pubsub.Event
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-answers:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			return events
		}
	}
}

// RPC returns the message of the first answer to query.
func RPC(query string, timeout time.Duration) (string, error) {
	answers := ask(query)
	defer Subscriber.Close(answers)

	select {
	case ev, ok := <-answers:
		if ok {
			return ev.StringField("message"), nil
		}
	case <-time.After(timeout):
	}
	return "", errors.Errorf("no answer to %q within %s", query, timeout)
}
