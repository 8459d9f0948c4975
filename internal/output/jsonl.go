package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"jumpsim/internal/domain/models"
)

// JSONLSink writes one JSON object per line per step.
type JSONLSink struct {
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
}

// NewJSONLSink creates the file for line-delimited JSON records.
func NewJSONLSink(path string) (*JSONLSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	buf := bufio.NewWriter(f)
	return &JSONLSink{f: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

func (s *JSONLSink) Write(rec models.StepRecord) error {
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	if err := s.buf.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return s.f.Close()
}
