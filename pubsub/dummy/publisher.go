package dummy

import (
	"sync"

	"github.com/barnybug/djtpms/pubsub"
)

// Publisher for testing, recording emitted events.
type Publisher struct {
	sync.Mutex
	Events []*pubsub.Event
}

func (pub *Publisher) ID() string {
	return "dummy"
}

func (pub *Publisher) Emit(ev *pubsub.Event) {
	pub.Lock()
	pub.Events = append(pub.Events, ev)
	pub.Unlock()
	ev.Published.Set()
}
