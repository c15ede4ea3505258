package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Monitor decodes console lines and fans samples out to sinks
type Monitor struct {
	sinks   []Sink
	log     zerolog.Logger
	now     func() time.Time
	seq     uint64
	skipped uint64
}

// New creates a monitor publishing to sinks
func New(log zerolog.Logger, sinks ...Sink) *Monitor {
	return &Monitor{
		sinks: sinks,
		log:   log.With().Str("component", "monitor").Logger(),
		now:   time.Now,
	}
}

// Run consumes lines until the channel closes or ctx is done, then closes
// the sinks. Sink failures are logged and do not stop the monitor.
func (m *Monitor) Run(ctx context.Context, lines <-chan string) error {
	defer m.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			m.Handle(ctx, line)
		}
	}
}

// Close closes the sinks. Failures are logged.
func (m *Monitor) Close() {
	if err := closeAll(m.sinks); err != nil {
		m.log.Warn().Err(err).Msg("closing sinks")
	}
}

// Handle processes one console line
func (m *Monitor) Handle(ctx context.Context, line string) {
	v, err := ParseSample(line)
	if err != nil {
		m.skipped++
		m.log.Debug().Str("line", line).Msg("console")
		return
	}

	m.seq++
	s := Sample{Seq: m.seq, Centivolts: v, Time: m.now()}
	for _, sink := range m.sinks {
		if err := sink.Publish(ctx, s); err != nil {
			m.log.Warn().Err(err).Uint64("seq", s.Seq).Msg("publish failed")
		}
	}
}

// Samples returns the number of samples seen
func (m *Monitor) Samples() uint64 {
	return m.seq
}

// Skipped returns the number of console lines that were not samples
func (m *Monitor) Skipped() uint64 {
	return m.skipped
}
