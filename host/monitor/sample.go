// Package monitor turns the board's sample stream into log entries, MQTT
// messages and Prometheus metrics.
package monitor

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNoSample is returned for console lines that are not a sample
var ErrNoSample = errors.New("not a sample")

// Sample is one value printed by the board while reading
type Sample struct {
	Seq        uint64    `json:"seq"`
	Centivolts uint32    `json:"centivolts"`
	Time       time.Time `json:"time"`
}

// Volts returns the sample in volts
func (s Sample) Volts() float64 {
	return float64(s.Centivolts) / 100
}

// ParseSample decodes one console line. Samples are bare decimal numbers;
// anything else, including prompts and echoed commands, is ErrNoSample.
func ParseSample(line string) (uint32, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, ErrNoSample
	}
	for i := 0; i < len(line); i++ {
		if line[i] < '0' || line[i] > '9' {
			return 0, ErrNoSample
		}
	}
	v, err := strconv.ParseUint(line, 10, 32)
	if err != nil {
		return 0, ErrNoSample
	}
	return uint32(v), nil
}
