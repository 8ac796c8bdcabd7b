package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	cfg "github.com/barnybug/djtpms/config"
	"github.com/barnybug/djtpms/pubsub"
	"github.com/barnybug/djtpms/services"
	"github.com/pkg/errors"
)

func readConfig(filenames []string) ([]byte, error) {
	// concatenate files together
	data := &bytes.Buffer{}
	for _, filename := range filenames {
		f, err := os.Open(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", filename)
		}
		_, err = io.Copy(data, f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", filename)
		}
		data.WriteByte('\n')
	}
	// refuse to publish config services can't load
	if _, err := cfg.OpenRaw(data.Bytes()); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}

// config publishes the concatenated files, or the default config file, as the
// retained config event services load their config from.
func config(filenames []string) {
	if len(filenames) == 0 {
		filenames = []string{cfg.Path()}
	}
	data, err := readConfig(filenames)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ev := pubsub.NewEvent("config", pubsub.Fields{"config": string(data)})
	ev.SetRetained(true)
	services.SetupBroker("tpmsd")
	services.Publisher.Emit(ev)
	fmt.Printf("Updated config from %s (%d bytes)\n", strings.Join(filenames, ", "), len(data))
}
