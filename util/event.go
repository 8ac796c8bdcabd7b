package util

import "sync"

// Event is a one-shot flag that goroutines can wait on.
type Event struct {
	once sync.Once
	done chan struct{}
}

func NewEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// Set the flag, releasing all waiters. Reports whether it was already set.
func (e *Event) Set() bool {
	first := false
	e.once.Do(func() {
		close(e.done)
		first = true
	})
	return !first
}

// Wait blocks until the flag is set.
func (e *Event) Wait() {
	<-e.done
}
