// Daemon and control command for DJTPMS tyre pressure sensors.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	cfg "github.com/barnybug/djtpms/config"
	"github.com/barnybug/djtpms/services"
	"github.com/barnybug/djtpms/services/tpms"
)

func registerServices() {
	services.Register(&tpms.Service{})
}

func usage() {
	fmt.Println("Usage: tpmsd COMMAND [SERVICE]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("   config  [file...]       Publish config (default " + cfg.Path() + ")")
	fmt.Println("   run     service...      Run services")
	fmt.Println("   status  [device]        Latest tyre readings")
	fmt.Println("   query   verb [args]     Query services")
	fmt.Println()
}

func main() {
	log.SetOutput(os.Stdout)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	ps := splitArgs(flag.Args()[1:])
	services.SetupLogging()

	command := flag.Args()[0]
	switch command {
	default:
		usage()
	case "config":
		config(ps)
	case "run":
		service(ps)
	case "status":
		status(ps)
	case "query":
		if len(ps) == 0 {
			usage()
			return
		}
		query(ps[0], ps[1:])
	}
}

// splitArgs drops anything after '--', which is left for service flags.
func splitArgs(ps []string) []string {
	for i := range ps {
		if ps[i] == "--" {
			return ps[0:i]
		}
	}
	return ps
}

func query(verb string, args []string) {
	services.SetupBroker("tpmsd")
	q := strings.TrimSpace(verb + " " + strings.Join(args, " "))
	events := services.Query(q, 2*time.Second)
	if len(events) == 0 {
		fmt.Println("No response")
		os.Exit(1)
	}
	for _, ev := range events {
		fmt.Printf("\x1b[32;1m%s\x1b[0m %s\n", ev.Source(), ev.StringField("message"))
	}
}

func status(args []string) {
	services.SetupBroker("tpmsd")
	message, err := services.RPC(statusQuery(args), 2*time.Second)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println(message)
}

func statusQuery(args []string) string {
	return strings.TrimSpace("tpms/status " + strings.Join(args, " "))
}

// Start builtin services
func service(ss []string) {
	services.SetupBroker(strings.Join(ss, ","))
	registerServices()
	os.Args = append(os.Args[:1], serviceFlags(os.Args[1:])...)
	services.Launch(ss)
}

// serviceFlags returns the arguments after '--'.
func serviceFlags(args []string) []string {
	for i := range args {
		if args[i] == "--" {
			return args[i+1:]
		}
	}
	return nil
}
