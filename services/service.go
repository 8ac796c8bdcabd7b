package services

import (
	"flag"
	"log"
	"os"

	"github.com/barnybug/djtpms/pubsub"
	"github.com/barnybug/djtpms/pubsub/mqtt"
	"github.com/pkg/errors"
)

// Service interface
type Service interface {
	ID() string
	Run() error
}

// ServiceInit is implemented by services that load their own config. Other
// services wait for config from the broker.
type ServiceInit interface {
	Service
	Init() error
}

// Flags is implemented by services with command line flags.
type Flags interface {
	Flags()
}

var (
	registry = map[string]Service{}
	enabled  []Service
)

var Publisher pubsub.Publisher
var Subscriber pubsub.Subscriber

func Register(service Service) {
	if _, exists := registry[service.ID()]; exists {
		log.Fatalf("Duplicate service registered: %s", service.ID())
	}
	registry[service.ID()] = service
}

func lookup(names []string) ([]Service, error) {
	var ss []Service
	for _, name := range names {
		service, ok := registry[name]
		if !ok {
			return nil, errors.Errorf("service %s does not exist", name)
		}
		ss = append(ss, service)
	}
	return ss, nil
}

func SetupLogging() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
}

// SetupFlags registers the flags of enabled services and parses the command line.
func SetupFlags() {
	for _, service := range enabled {
		if f, ok := service.(Flags); ok {
			f.Flags()
		}
	}
	flag.Parse()
}

// SetupBroker connects Publisher and Subscriber to the mqtt broker in $DJTPMS_MQTT.
func SetupBroker(name string) {
	url := os.Getenv("DJTPMS_MQTT")
	if url == "" {
		log.Fatalln("Set DJTPMS_MQTT to the mqtt server. eg: tcp://127.0.0.1:1883")
	}
	broker := mqtt.NewBroker(url, name)
	Publisher = broker.Publisher()
	Subscriber = broker.Subscriber()
}

func initService(service Service) error {
	if s, ok := service.(ServiceInit); ok {
		return errors.Wrapf(s.Init(), "init %s", service.ID())
	}
	WaitForConfig()
	return nil
}

// Launch the named services and block until they finish. A service failing
// is fatal.
func Launch(names []string) {
	var err error
	if enabled, err = lookup(names); err != nil {
		log.Fatalln(err)
	}
	SetupFlags()
	go ServeQueries(enabled)

	for _, service := range enabled {
		log.Printf("Starting %s", service.ID())
		if err := initService(service); err != nil {
			log.Fatalln(err)
		}
	}

	errs := make(chan error, len(enabled))
	for _, service := range enabled {
		go Heartbeat(service.ID())
		go func(service Service) {
			errs <- errors.Wrapf(service.Run(), "running %s", service.ID())
		}(service)
	}
	for range enabled {
		if err := <-errs; err != nil {
			log.Fatalln(err)
		}
	}
}
