package services

import (
	"hash/fnv"
	"log"
	"sync"

	"github.com/barnybug/djtpms/config"
	"github.com/barnybug/djtpms/pubsub"
)

var (
	configMu  sync.RWMutex
	current   *config.Config
	listeners []func(*config.Config)
)

// Conf returns the current configuration, nil until one has been loaded.
func Conf() *config.Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return current
}

// SetConfig replaces the current configuration and passes it to the
// OnConfig listeners.
func SetConfig(c *config.Config) {
	configMu.Lock()
	current = c
	ls := append([]func(*config.Config){}, listeners...)
	configMu.Unlock()
	for _, fn := range ls {
		fn(c)
	}
}

// OnConfig calls fn with every configuration set after it is registered.
func OnConfig(fn func(*config.Config)) {
	configMu.Lock()
	listeners = append(listeners, fn)
	configMu.Unlock()
}

// configStream reads configurations from retained config events, skipping
// repeats of the last one and any that fail to parse.
type configStream struct {
	events <-chan *pubsub.Event
	last   uint32
}

func fingerprint(data []byte) uint32 {
	h := fnv.New32a()
	h.Write(data)
	return h.Sum32()
}

// next blocks for the next new configuration. nil once the events close.
func (s *configStream) next() *config.Config {
	for ev := range s.events {
		data := []byte(ev.StringField("config"))
		sum := fingerprint(data)
		if sum == s.last {
			continue
		}
		s.last = sum
		conf, err := config.OpenRaw(data)
		if err != nil {
			log.Println("Error reading config:", err)
			continue
		}
		return conf
	}
	return nil
}

// WaitForConfig blocks until the broker delivers a configuration, then keeps
// applying updates in the background. It returns at once if a configuration
// is already loaded.
func WaitForConfig() {
	if Conf() != nil {
		return
	}
	stream := &configStream{events: Subscriber.Subscribe("config")}
	conf := stream.next()
	if conf == nil {
		log.Fatalln("No config received")
	}
	SetConfig(conf)

	go func() {
		for conf := stream.next(); conf != nil; conf = stream.next() {
			log.Println("Config updated")
			SetConfig(conf)
		}
	}()
}
