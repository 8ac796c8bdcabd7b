package pubsub

type Publisher interface {
	ID() string
	Emit(ev *Event)
}

// Subscriber delivers events whose topic equals one of the subscribed topics.
type Subscriber interface {
	ID() string
	Subscribe(topics ...string) <-chan *Event
	Close(<-chan *Event)
}
