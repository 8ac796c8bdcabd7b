package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/barnybug/djtpms/pubsub"
	"github.com/barnybug/djtpms/pubsub/dummy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	id            string
	queryHandlers QueryHandlers
}

func (service *MockService) ID() string {
	return service.id
}

func (service *MockService) Run() error {
	return nil
}

func (service *MockService) QueryHandlers() QueryHandlers {
	return service.queryHandlers
}

func waitForEvents(em *dummy.Publisher, n int) []*pubsub.Event {
	for i := 0; i < 100; i++ {
		em.Lock()
		events := append([]*pubsub.Event(nil), em.Events...)
		em.Unlock()
		if len(events) >= n {
			return events
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func ExampleServeQueries() {
	query := pubsub.NewEvent("query", pubsub.Fields{"query": "help", "reply_to": "_rpc.1"})
	Subscriber = &dummy.Subscriber{Events: []*pubsub.Event{query}}
	em := &dummy.Publisher{}
	Publisher = em
	mock := &MockService{
		id:            "tpms",
		queryHandlers: QueryHandlers{"help": StaticHandler("squiggle")},
	}
	ServeQueries([]Service{mock})
	events := waitForEvents(em, 1)
	fmt.Println(len(events))
	fmt.Println(events[0].Topic, events[0].StringField("message"))
	// Output:
	// 1
	// _rpc.1 squiggle
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		query  string
		target string
		q      Question
	}{
		{"status", "", Question{Verb: "status"}},
		{"Status front left", "", Question{Verb: "status", Args: "front left"}},
		{"TPMS/status rear", "tpms", Question{Verb: "status", Args: "rear"}},
		{"  help  ", "", Question{Verb: "help"}},
		{"", "", Question{}},
	}
	for _, tt := range tests {
		target, q := parseQuery(tt.query)
		assert.Equal(t, tt.target, target, tt.query)
		assert.Equal(t, tt.q, q, tt.query)
	}
}

func TestQueryLimit(t *testing.T) {
	em := &dummy.Publisher{}
	Publisher = em
	a := &MockService{id: "tpms", queryHandlers: QueryHandlers{"status": StaticHandler("a")}}
	b := &MockService{id: "other", queryHandlers: QueryHandlers{"status": StaticHandler("b")}}

	ev := pubsub.NewEvent("query", pubsub.Fields{"query": "TPMS/status", "source": "rpc", "reply_to": "_rpc.1"})
	dispatch(ev, []Queryable{a, b})
	events := waitForEvents(em, 1)
	require.Len(t, events, 1)
	assert.Equal(t, "_rpc.1", events[0].Topic)
	assert.Equal(t, "a", events[0].StringField("message"))
	assert.Equal(t, "tpms", events[0].Source())
	assert.Equal(t, "rpc", events[0].StringField("target"))
}

func TestQueryAnswer(t *testing.T) {
	em := &dummy.Publisher{}
	Publisher = em
	var got Question
	a := &MockService{id: "tpms", queryHandlers: QueryHandlers{"status": func(q Question) Answer {
		got = q
		return Answer{Json: map[string]int{"n": 1}}
	}}}

	ev := pubsub.NewEvent("query", pubsub.Fields{"query": "status tyre.front_left", "source": "cli", "reply_to": "_rpc.2"})
	dispatch(ev, []Queryable{a})
	events := waitForEvents(em, 1)
	require.Len(t, events, 1)
	assert.Equal(t, Question{Verb: "status", Args: "tyre.front_left", From: "cli"}, got)
	assert.Equal(t, "_rpc.2", events[0].Topic)
	assert.NotContains(t, events[0].Fields, "message")
	assert.Equal(t, map[string]int{"n": 1}, events[0].Fields["json"])
}

func TestQueryWithoutReplyTo(t *testing.T) {
	em := &dummy.Publisher{}
	Publisher = em
	called := make(chan bool, 1)
	a := &MockService{id: "tpms", queryHandlers: QueryHandlers{"status": func(Question) Answer {
		called <- true
		return Answer{Text: "a"}
	}}}

	dispatch(pubsub.NewEvent("query", pubsub.Fields{"query": "status"}), []Queryable{a})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, called)
	assert.Empty(t, em.Events)
}

func TestQueryUnknownVerb(t *testing.T) {
	em := &dummy.Publisher{}
	Publisher = em
	a := &MockService{id: "tpms", queryHandlers: QueryHandlers{"status": StaticHandler("a")}}
	dispatch(pubsub.NewEvent("query", pubsub.Fields{"query": "reboot", "reply_to": "_rpc.3"}), []Queryable{a})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, em.Events)
}
