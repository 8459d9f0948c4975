// Package output writes per-step simulation records to external sinks. Sink
// failures are I/O collaborator failures: they surface as errors but never
// corrupt in-memory simulation state.
package output

import "jumpsim/internal/domain/models"

// Sink consumes one StepRecord per simulation step, in time order.
type Sink interface {
	Write(rec models.StepRecord) error
	Close() error
}

// MemorySink buffers records in memory, mainly for tests and the experiment
// runner.
type MemorySink struct {
	Records []models.StepRecord
}

func (s *MemorySink) Write(rec models.StepRecord) error {
	s.Records = append(s.Records, rec)
	return nil
}

func (s *MemorySink) Close() error { return nil }

// DiscardSink drops every record. Used by replications that only need the
// run summary.
type DiscardSink struct{}

func (DiscardSink) Write(models.StepRecord) error { return nil }

func (DiscardSink) Close() error { return nil }

// MultiSink fans one record out to several sinks.
type MultiSink []Sink

func (m MultiSink) Write(rec models.StepRecord) error {
	for _, s := range m {
		if err := s.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
