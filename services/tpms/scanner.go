package tpms

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/barnybug/djtpms/config"
	"github.com/pkg/errors"
)

const scannerRetries = 3

var errTerminated = errors.New("scanner terminated")

func scannerExe() string {
	ex, err := os.Executable()
	if err != nil {
		log.Fatalln("Couldn't get path of executable:", err)
	}
	return filepath.Join(filepath.Dir(ex), "djtpms")
}

func scannerArgs(conf config.TpmsConf) []string {
	return []string{
		"-window", conf.Window.Duration.String(),
		"-repeat", conf.Repeat.Duration.String(),
		"-name", conf.Name,
	}
}

// Scanner supervises the djtpms process, passing each line it prints to
// handle. It is restarted when it exits, up to scannerRetries times.
type Scanner struct {
	argv   []string
	sudo   bool
	handle func(line []byte)
	done   chan struct{}

	mu          sync.Mutex
	pid         int
	terminating atomic.Bool
}

func newScanner(conf config.TpmsConf, handle func(line []byte)) *Scanner {
	return &Scanner{
		argv:   append([]string{"sudo", scannerExe()}, scannerArgs(conf)...),
		sudo:   true,
		handle: handle,
		done:   make(chan struct{}),
	}
}

func (s *Scanner) launch() {
	go s.run()
}

func (s *Scanner) run() {
	defer close(s.done)
	for i := 0; i < scannerRetries && !s.terminating.Load(); i++ {
		log.Println("Starting djtpms scanner...")
		err := s.runOnce()
		if err == errTerminated {
			return
		}
		if err != nil {
			log.Println("djtpms failed:", err)
		} else {
			log.Println("djtpms exited")
		}
	}
}

func (s *Scanner) runOnce() error {
	var stderr bytes.Buffer
	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	cmd.Stderr = &stderr
	// own process group, so terminate reaches the scanner and not us
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "stdout")
	}

	s.mu.Lock()
	if s.terminating.Load() {
		s.mu.Unlock()
		return errTerminated
	}
	err = cmd.Start()
	if err == nil {
		s.pid = cmd.Process.Pid
	}
	s.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "start")
	}

	lines := bufio.NewScanner(stdout)
	for lines.Scan() {
		s.handle(lines.Bytes())
	}
	readErr := lines.Err()
	err = cmd.Wait()

	s.mu.Lock()
	s.pid = 0
	s.mu.Unlock()

	if stderr.Len() > 0 {
		log.Printf("djtpms error: %s", stderr.String())
	}
	if readErr != nil {
		return errors.Wrap(readErr, "reading output")
	}
	return err
}

// terminate interrupts the scanner and stops it being restarted. Only SIGINT
// stops a scan cleanly; other signals can leave the hci device unusable until
// it is taken down and up.
func (s *Scanner) terminate() {
	s.mu.Lock()
	s.terminating.Store(true)
	pid := s.pid
	s.mu.Unlock()
	if pid == 0 {
		return
	}

	var err error
	if s.sudo {
		// the scanner runs as root
		err = exec.Command("sudo", "kill", "-INT", "--", fmt.Sprintf("-%d", pid)).Run()
	} else {
		err = syscall.Kill(-pid, syscall.SIGINT)
	}
	if err != nil {
		log.Println("Error interrupting djtpms:", err)
	}
}
