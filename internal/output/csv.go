package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"jumpsim/internal/domain/models"
)

// CSVSink writes one row per step: time,price,log_return,volatility,shock,regime.
type CSVSink struct {
	f *os.File
	w *csv.Writer
}

// NewCSVSink creates the file and writes the header row.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	w := csv.NewWriter(f)
	header := []string{"time", "price", "log_return", "volatility", "shock", "regime"}
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &CSVSink{f: f, w: w}, nil
}

func (s *CSVSink) Write(rec models.StepRecord) error {
	row := []string{
		strconv.FormatUint(rec.Time, 10),
		fmtFloat(rec.Price),
		fmtFloat(rec.LogReturn),
		fmtFloat(rec.Volatility),
		fmtFloat(rec.Shock),
		rec.Regime.String(),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	return s.f.Close()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
