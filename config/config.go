package config

import (
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/barnybug/djtpms/pubsub"
	"github.com/barnybug/djtpms/util"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultName   = "DJTPMS"
	DefaultWindow = 5 * time.Second
	DefaultRepeat = 60 * time.Second
)

type DeviceConf struct {
	Id   string
	Name string
}

type EndpointsConf struct {
	Mqtt struct {
		Broker string
	}
}

// Duration accepts the forms understood by util.ParseDuration.
type Duration struct {
	time.Duration
}

func (self *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	d, err := util.ParseDuration(s)
	if err != nil {
		return err
	}
	self.Duration = d
	return nil
}

type TpmsConf struct {
	// Advertised local name of the sensors
	Name string
	// Scan window before the scanner is re-armed
	Window Duration
	// Unchanged readings are repeated at most this often
	Repeat Duration
}

// Configuration structure
type Config struct {
	Devices   map[string]DeviceConf
	Protocols map[string]map[string]string
	Endpoints EndpointsConf
	Tpms      TpmsConf
}

// Open configuration from a file.
func OpenFile(name string) (*Config, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "opening config")
	}
	defer file.Close()
	return OpenReader(file)
}

// Open configuration from a reader.
func OpenReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return OpenRaw(data)
}

// Open configuration from []byte.
func OpenRaw(data []byte) (*Config, error) {
	self := &Config{}
	if err := yaml.Unmarshal(data, self); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	if self.Devices == nil {
		self.Devices = map[string]DeviceConf{}
	}
	for id, device := range self.Devices {
		device.Id = id
		self.Devices[id] = device
	}
	// addresses are matched case insensitively
	for protocol, ids := range self.Protocols {
		lowered := map[string]string{}
		for id, name := range ids {
			lowered[strings.ToLower(id)] = name
		}
		self.Protocols[protocol] = lowered
	}

	if self.Tpms.Name == "" {
		self.Tpms.Name = DefaultName
	}
	if self.Tpms.Window.Duration <= 0 {
		self.Tpms.Window.Duration = DefaultWindow
	}
	if self.Tpms.Repeat.Duration <= 0 {
		self.Tpms.Repeat.Duration = DefaultRepeat
	}
	return self, nil
}

// Must is a helper that panics if the config failed to load.
func Must(c *Config, err error) *Config {
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup the device name for a source of the form protocol.id
func (self *Config) LookupSource(source string) string {
	ps := strings.SplitN(source, ".", 2)
	if len(ps) < 2 {
		return ""
	}
	return self.Protocols[ps[0]][strings.ToLower(ps[1])]
}

// AddDeviceToEvent sets the device field from the event's source.
func (self *Config) AddDeviceToEvent(ev *pubsub.Event) {
	if device := self.LookupSource(ev.Source()); device != "" {
		ev.SetField("device", device)
	}
}

// DevicesByProtocol returns the devices mapped under protocol, sorted by name.
func (self *Config) DevicesByProtocol(protocol string) []DeviceConf {
	var ret []DeviceConf
	for _, name := range self.Protocols[protocol] {
		device, ok := self.Devices[name]
		if !ok {
			device = DeviceConf{Id: name}
		}
		ret = append(ret, device)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Id < ret[j].Id })
	return ret
}

// Path of the config file under $XDG_CONFIG_HOME, falling back to ~/.config.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = path.Join(os.Getenv("HOME"), ".config")
	}
	return path.Join(dir, "djtpms", "djtpms.yml")
}
