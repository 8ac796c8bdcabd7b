package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var shortUnits = []struct {
	unit   time.Duration
	suffix string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
}

// ShortDuration formats d in its two largest units, eg "1d 2h". Under a
// second it is given in milliseconds.
func ShortDuration(d time.Duration) string {
	if d < time.Second {
		if ms := d.Milliseconds(); ms > 0 {
			return fmt.Sprintf("%dms", ms)
		}
		return "0s"
	}
	for i, u := range shortUnits {
		if d < u.unit {
			continue
		}
		s := fmt.Sprintf("%d%s", d/u.unit, u.suffix)
		if i+1 < len(shortUnits) {
			next := shortUnits[i+1]
			if n := d % u.unit / next.unit; n > 0 {
				s += fmt.Sprintf(" %d%s", n, next.suffix)
			}
		}
		return s
	}
	return "0s"
}

var reDays = regexp.MustCompile(`^(\d+)([dw])\s*(.*)$`)

var dayUnits = map[string]time.Duration{
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

// ParseDuration does the same as time.ParseDuration but also understands a
// leading count of days (d) or weeks (w), eg "1d12h".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	m := reDays.FindStringSubmatch(s)
	if m == nil {
		return 0, errors.Errorf("invalid duration: %q", s)
	}
	n, _ := strconv.Atoi(m[1])
	total := time.Duration(n) * dayUnits[m[2]]
	if m[3] != "" {
		rest, err := time.ParseDuration(m[3])
		if err != nil {
			return 0, errors.Wrapf(err, "invalid duration: %q", s)
		}
		total += rest
	}
	return total, nil
}
