package services

import (
	"fmt"
	"os"
	"time"

	"github.com/barnybug/djtpms/pubsub"
)

const heartbeatInterval = time.Minute

func heartbeatEvent(id string, started, now time.Time) *pubsub.Event {
	ev := pubsub.NewEvent("heartbeat", pubsub.Fields{
		"device":  fmt.Sprintf("heartbeat.%s", id),
		"pid":     os.Getpid(),
		"started": started.Format(time.RFC3339),
		"uptime":  int(now.Sub(started).Seconds()),
	})
	ev.SetRetained(true)
	return ev
}

// Heartbeat publishes a retained heartbeat for the service every minute.
func Heartbeat(id string) {
	started := time.Now()
	// nothing for a service that dies at startup
	time.Sleep(5 * time.Second)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		ev := heartbeatEvent(id, started, time.Now())
		Publisher.Emit(ev)
		ev.Published.Wait()
		<-ticker.C
	}
}
