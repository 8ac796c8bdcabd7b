// Command line proxy for reading DJTPMS bluetooth tyre pressure sensors.
// This is launched by tpmsd as user root as is necessary to snoop bluetooth broadcasts.
//
// Each reading is printed to stdout as a json line. With -decode, a single
// captured payload is decoded instead of scanning.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/barnybug/djtpms/tpms"
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/pkg/errors"
)

var (
	window = flag.Duration("window", 5*time.Second, "scan window before re-arming")
	repeat = flag.Duration("repeat", time.Minute, "repeat unchanged readings at most this often")
	name   = flag.String("name", "DJTPMS", "advertised local name to accept (empty for any)")
	decode = flag.String("decode", "", "decode a hex payload and exit")
	tag    = flag.Int("tag", 0, "manufacturer id of the -decode payload, negative for service data")
)

func main() {
	log.SetOutput(os.Stderr)
	flag.Parse()

	if *decode != "" {
		m, ok, err := decodeHex(*decode, *tag)
		if err != nil {
			log.Fatalln(err)
		}
		if !ok {
			fmt.Println("no match")
			os.Exit(1)
		}
		fmt.Printf("battery_voltage=%.1f temp=%d pressure_abs=%d pressure=%d\n",
			m.BatteryVoltage, m.Temperature, m.AbsolutePressure, m.GaugePressure)
		return
	}

	d, err := linux.NewDevice()
	if err != nil {
		log.Fatal("Can't create new device:", err)
	}
	ble.SetDefaultDevice(d)
	scan()
}

func decodeHex(s string, tag int) (tpms.Measurement, bool, error) {
	data, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if err != nil {
		return tpms.Measurement{}, false, errors.Wrap(err, "invalid payload")
	}
	if tag > 0xffff {
		return tpms.Measurement{}, false, errors.Errorf("tag out of range: %d", tag)
	}
	payload := tpms.ServiceData(data)
	if tag >= 0 {
		payload = tpms.Manufacturer(uint16(tag), data)
	}
	m, ok := tpms.Decode([]tpms.Payload{payload})
	return m, ok, nil
}

type Reading struct {
	mac  string
	rssi int
	tpms.Measurement
}

func (r Reading) Fields() map[string]interface{} {
	return map[string]interface{}{
		"topic":           "tpms",
		"source":          fmt.Sprintf("tpms.%s", r.mac),
		"battery_voltage": r.BatteryVoltage,
		"temp":            r.Temperature,
		"pressure_abs":    r.AbsolutePressure,
		"pressure":        r.GaugePressure,
		"rssi":            r.rssi,
	}
}

type seen struct {
	m  tpms.Measurement
	at time.Time
}

// Deduper suppresses unchanged readings from a sensor within a window.
type Deduper struct {
	window time.Duration
	last   map[string]seen
}

func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{window: window, last: map[string]seen{}}
}

// Duplicate reports whether r repeats the previous reading from its sensor.
func (d *Deduper) Duplicate(r Reading, now time.Time) bool {
	prev, ok := d.last[r.mac]
	if ok && prev.m == r.Measurement && now.Sub(prev.at) < d.window {
		return true
	}
	d.last[r.mac] = seen{r.Measurement, now}
	return false
}

var readingChannel chan Reading

func adFilter(a ble.Advertisement) bool {
	return tpms.Supported(a, *name)
}

func adScanHandler(a ble.Advertisement) {
	m, ok := tpms.DecodeAdvertisement(a)
	if !ok {
		return
	}
	readingChannel <- Reading{mac: a.Addr().String(), rssi: a.RSSI(), Measurement: m}
}

// writeReadings prints each reading that is not a duplicate as a json line.
func writeReadings(in <-chan Reading, w io.Writer, dedupe *Deduper, now func() time.Time) {
	for reading := range in {
		if dedupe.Duplicate(reading, now()) {
			continue
		}
		data, err := json.Marshal(reading.Fields())
		if err != nil {
			log.Println("Error encoding reading:", err)
			continue
		}
		fmt.Fprintln(w, string(data))
	}
}

func readings() {
	writeReadings(readingChannel, os.Stdout, NewDeduper(*repeat), time.Now)
}

func scan() {
	readingChannel = make(chan Reading, 10)
	log.Println("Started scanning")

	go readings()
	for {
		ctx := ble.WithSigHandler(context.WithTimeout(context.Background(), *window))
		err := ble.Scan(ctx, true, adScanHandler, adFilter)
		if errors.Cause(err) == context.Canceled {
			break
		} else if errors.Cause(err) == context.DeadlineExceeded {
			continue
		}
		log.Fatalln(err)
	}
}
