// Package ingest turns recorded driving logs into ordered samples.
//
// A log holds one whitespace separated record per line. Only the last four
// fields matter: steering angle, throttle, reverse, speed. Leading columns
// (image paths, timestamps) are ignored.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/drivescore/internal/domain/model"
)

const (
	// FieldCount is the number of trailing fields forming a sample.
	FieldCount = 4

	thousandsSeparator = ","
	maxLineBytes       = 1 << 20
)

// Decoder reads samples from a log stream.
type Decoder struct {
	sc      *bufio.Scanner
	line    int
	records int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Decoder{sc: sc}
}

// Next returns the next sample. It returns io.EOF once the stream is drained.
// Blank lines are skipped.
func (d *Decoder) Next() (model.Sample, error) {
	for d.sc.Scan() {
		d.line++
		fields := strings.Fields(d.sc.Text())
		if len(fields) == 0 {
			continue
		}
		idx := d.records
		d.records++
		s, err := ParseFields(fields)
		if err != nil {
			return model.Sample{}, fmt.Errorf("record %d (line %d): %w", idx, d.line, err)
		}
		return s, nil
	}
	if err := d.sc.Err(); err != nil {
		return model.Sample{}, fmt.Errorf("read log: %w", err)
	}
	return model.Sample{}, io.EOF
}

// DecodeAll reads every sample from r, in order.
func DecodeAll(r io.Reader) ([]model.Sample, error) {
	d := NewDecoder(r)
	var out []model.Sample
	for {
		s, err := d.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

// DecodeFile reads every sample from the log at path.
func DecodeFile(path string) ([]model.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	samples, err := DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// ParseFields converts one split record into a Sample using its last four
// fields.
func ParseFields(fields []string) (model.Sample, error) {
	if len(fields) < FieldCount {
		return model.Sample{}, fmt.Errorf("%w: want at least %d fields, got %d", model.ErrInvalidSample, FieldCount, len(fields))
	}
	tail := fields[len(fields)-FieldCount:]

	var vals [FieldCount]float64
	for i, raw := range tail {
		v, err := ParseNumber(raw)
		if err != nil {
			return model.Sample{}, err
		}
		vals[i] = v
	}

	s := model.Sample{
		SteeringAngle: vals[0],
		Throttle:      vals[1],
		Reverse:       vals[2],
		Speed:         vals[3],
	}
	if err := s.Validate(); err != nil {
		return model.Sample{}, err
	}
	return s, nil
}

// ParseNumber parses a numeric field after dropping thousands separators.
func ParseNumber(raw string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), thousandsSeparator, "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", model.ErrInvalidSample, raw)
	}
	return v, nil
}
