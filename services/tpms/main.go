// Service to receive DJTPMS tyre pressure sensor readings.
//
// The bluetooth scan runs in a separate djtpms process as root, which prints a
// json line per reading. This service supervises it, maps sensor addresses to
// device names and publishes the readings as events. The scanner is restarted
// when the tpms section of the config changes.
package tpms

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/barnybug/djtpms/config"
	"github.com/barnybug/djtpms/pubsub"
	"github.com/barnybug/djtpms/services"
	"github.com/barnybug/djtpms/util"
	"github.com/pkg/errors"
)

var now = time.Now

// Service tpms
type Service struct {
	configFile string
	restart    chan struct{}

	mu       sync.Mutex
	settings config.TpmsConf
	readings map[string]*pubsub.Event
}

// ID of the service
func (self *Service) ID() string {
	return "tpms"
}

func (self *Service) Flags() {
	flag.StringVar(&self.configFile, "config", "", "read config from file instead of the broker")
}

func (self *Service) Init() error {
	if self.configFile == "" {
		services.WaitForConfig()
		return nil
	}
	conf, err := config.OpenFile(self.configFile)
	if err != nil {
		return err
	}
	services.SetConfig(conf)
	return nil
}

// handle a line of scanner output, returning the event emitted if any.
func (self *Service) handle(line []byte) *pubsub.Event {
	if len(line) == 0 {
		return nil
	}
	if line[0] != '{' {
		log.Printf("djtpms: %s", string(line))
		return nil
	}
	ev := pubsub.Parse(string(line), "tpms")
	if ev == nil || ev.Source() == "" {
		log.Printf("Error parsing %s", string(line))
		return nil
	}
	if conf := services.Conf(); conf != nil {
		conf.AddDeviceToEvent(ev)
	}

	self.mu.Lock()
	if self.readings == nil {
		self.readings = map[string]*pubsub.Event{}
	}
	self.readings[ev.Source()] = ev
	self.mu.Unlock()

	services.Publisher.Emit(ev)
	return ev
}

// configChanged asks Run to restart the scanner when its settings change.
func (self *Service) configChanged(conf *config.Config) {
	self.mu.Lock()
	changed := conf.Tpms != self.settings
	self.settings = conf.Tpms
	self.mu.Unlock()
	if !changed {
		return
	}
	select {
	case self.restart <- struct{}{}:
	default:
		// restart already pending, it reads the latest settings
	}
}

func (self *Service) startScanner() *Scanner {
	self.mu.Lock()
	settings := self.settings
	self.mu.Unlock()
	scanner := newScanner(settings, func(line []byte) {
		self.handle(line)
	})
	scanner.launch()
	return scanner
}

func stopScanner(scanner *Scanner) {
	scanner.terminate()
	select {
	case <-scanner.done:
	case <-time.After(10 * time.Second):
		log.Println("djtpms did not stop")
	}
}

func formatReading(name string, ev *pubsub.Event, at time.Time) string {
	return fmt.Sprintf("%s: %dkPa (%dkPa abs) %d°C %.1fV %s ago",
		name,
		ev.IntField("pressure"),
		ev.IntField("pressure_abs"),
		ev.IntField("temp"),
		ev.FloatField("battery_voltage"),
		util.ShortDuration(at.Sub(ev.Timestamp)))
}

func (self *Service) queryStatus(q services.Question) string {
	self.mu.Lock()
	defer self.mu.Unlock()
	if len(self.readings) == 0 {
		return "No readings"
	}

	at := now()
	var lines []string
	for source, ev := range self.readings {
		name := ev.Device()
		if name == "" {
			name = source
		}
		if q.Args != "" && !strings.Contains(name, q.Args) {
			continue
		}
		lines = append(lines, formatReading(name, ev, at))
	}
	if len(lines) == 0 {
		return "No readings for " + q.Args
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func (self *Service) QueryHandlers() services.QueryHandlers {
	return services.QueryHandlers{
		"status": services.TextHandler(self.queryStatus),
		"help": services.StaticHandler("" +
			"status [device]: latest tyre readings\n"),
	}
}

// Run the service
func (self *Service) Run() error {
	conf := services.Conf()
	if conf == nil {
		return errors.New("no config")
	}
	for _, dev := range conf.DevicesByProtocol("tpms") {
		log.Printf("Listening for %s (%s)", dev.Id, dev.Name)
	}

	self.mu.Lock()
	self.settings = conf.Tpms
	self.mu.Unlock()
	self.restart = make(chan struct{}, 1)
	services.OnConfig(self.configChanged)

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)

	scanner := self.startScanner()
	for {
		select {
		case <-sigC:
			log.Println("Shutting down...")
			stopScanner(scanner)
			return nil
		case <-self.restart:
			log.Println("Scanner settings changed, restarting")
			stopScanner(scanner)
			scanner = self.startScanner()
		case <-scanner.done:
			return errors.New("djtpms scanner exited")
		}
	}
}
