package monitor

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Sink receives decoded samples
type Sink interface {
	Publish(ctx context.Context, s Sample) error
	Close() error
}

// LogSink writes every sample to a logger
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink logging at info level
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Publish implements Sink
func (l *LogSink) Publish(_ context.Context, s Sample) error {
	l.log.Info().
		Uint64("seq", s.Seq).
		Uint32("centivolts", s.Centivolts).
		Float64("volts", s.Volts()).
		Msg("sample")
	return nil
}

// Close implements Sink
func (l *LogSink) Close() error { return nil }

// closeAll closes every sink and joins the errors
func closeAll(sinks []Sink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
