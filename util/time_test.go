package util

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ExampleShortDuration() {
	d1, _ := time.ParseDuration("48h")
	d2, _ := time.ParseDuration("26.5h")
	d3, _ := time.ParseDuration("5h59m")
	d4, _ := time.ParseDuration("37m1s")
	d5, _ := time.ParseDuration("1500ms")
	d6, _ := time.ParseDuration("500ms")
	d7, _ := time.ParseDuration("500ns")

	fmt.Println(ShortDuration(d1))
	fmt.Println(ShortDuration(d2))
	fmt.Println(ShortDuration(d3))
	fmt.Println(ShortDuration(d4))
	fmt.Println(ShortDuration(d5))
	fmt.Println(ShortDuration(d6))
	fmt.Println(ShortDuration(d7))
	// Output:
	// 2d
	// 1d 2h
	// 5h 59m
	// 37m 1s
	// 1s
	// 500ms
	// 0s
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"5s":     5 * time.Second,
		"1m30s":  90 * time.Second,
		" 2m ":   2 * time.Minute,
		"1d":     24 * time.Hour,
		"2w":     14 * 24 * time.Hour,
		"1d12h":  36 * time.Hour,
		"1d 30m": 24*time.Hour + 30*time.Minute,
	}
	for s, expected := range tests {
		d, err := ParseDuration(s)
		assert.NoError(t, err, s)
		assert.Equal(t, expected, d, s)
	}

	for _, s := range []string{"", "abc", "1x", "1dxyz"} {
		_, err := ParseDuration(s)
		assert.Error(t, err, s)
	}
}
