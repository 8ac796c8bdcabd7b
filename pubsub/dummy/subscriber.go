package dummy

import "github.com/barnybug/djtpms/pubsub"

// Subscriber for testing. Each subscription receives the Events on its topics,
// then its channel closes.
type Subscriber struct {
	Events []*pubsub.Event
}

func (sub *Subscriber) ID() string {
	return "dummy"
}

func (sub *Subscriber) Subscribe(topics ...string) <-chan *pubsub.Event {
	want := map[string]bool{}
	for _, t := range topics {
		want[t] = true
	}
	ch := make(chan *pubsub.Event)
	go func() {
		defer close(ch)
		for _, ev := range sub.Events {
			if want[ev.Topic] {
				ch <- ev
			}
		}
	}()
	return ch
}

func (sub *Subscriber) Close(<-chan *pubsub.Event) {}
