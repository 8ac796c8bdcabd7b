package services

import (
	"log"
	"strings"

	"github.com/barnybug/djtpms/pubsub"
)

// Question is a query addressed to a service: "[service/]verb args".
type Question struct {
	Verb string
	Args string
	From string
}

type Answer struct {
	Text string
	Json interface{}
}

type QueryHandler func(q Question) Answer

type QueryHandlers map[string]QueryHandler

type Queryable interface {
	ID() string
	QueryHandlers() QueryHandlers
}

// TextHandler adapts a handler returning plain text.
func TextHandler(fn func(q Question) string) QueryHandler {
	return func(q Question) Answer {
		return Answer{Text: fn(q)}
	}
}

// StaticHandler always answers msg, eg for "help".
func StaticHandler(msg string) QueryHandler {
	return func(Question) Answer {
		return Answer{Text: msg}
	}
}

// parseQuery splits a query into the service it is limited to, if any, and
// the question.
func parseQuery(query string) (string, Question) {
	head, args, _ := strings.Cut(strings.TrimSpace(query), " ")
	target, verb, limited := strings.Cut(strings.ToLower(head), "/")
	if !limited {
		target, verb = "", target
	}
	return target, Question{Verb: verb, Args: strings.TrimSpace(args)}
}

func answerEvent(request *pubsub.Event, id string, answer Answer) *pubsub.Event {
	fields := pubsub.Fields{
		"source": id,
		"target": request.Source(),
	}
	if answer.Text != "" {
		fields["message"] = answer.Text
	}
	if answer.Json != nil {
		fields["json"] = answer.Json
	}
	return pubsub.NewEvent(request.StringField("reply_to"), fields)
}

// dispatch runs the handlers matching a query event, each on its own
// goroutine, and publishes their answers on the query's reply_to topic.
func dispatch(ev *pubsub.Event, queryables []Queryable) {
	if ev.StringField("reply_to") == "" {
		log.Printf("Dropping query without reply_to from %s", ev.Source())
		return
	}
	target, q := parseQuery(ev.StringField("query"))
	q.From = ev.Source()

	for _, s := range queryables {
		if target != "" && target != s.ID() {
			continue
		}
		handler, ok := s.QueryHandlers()[q.Verb]
		if !ok {
			continue
		}
		go func(id string) {
			Publisher.Emit(answerEvent(ev, id, handler(q)))
		}(s.ID())
	}
}

// ServeQueries answers query events for the Queryable services among ss.
func ServeQueries(ss []Service) {
	var queryables []Queryable
	for _, s := range ss {
		if q, ok := s.(Queryable); ok {
			queryables = append(queryables, q)
		}
	}
	if len(queryables) == 0 {
		return
	}
	for ev := range Subscriber.Subscribe("query") {
		dispatch(ev, queryables)
	}
}
