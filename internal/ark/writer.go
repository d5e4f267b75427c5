package ark

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
)

// Writer renders archives in text format. The zero value writes each value
// in the shortest decimal form that parses back to the identical float64.
type Writer struct {
	// Precision, when non-negative, fixes the number of digits after the
	// decimal point. Fixed precision is lossy.
	Precision int
	// Fixed enables Precision.
	Fixed bool
}

// NewWriter returns a writer for the given precision; a negative value
// selects lossless output.
func NewWriter(precision int) Writer {
	if precision < 0 {
		return Writer{}
	}
	return Writer{Precision: precision, Fixed: true}
}

// Serialize renders a with the lossless writer.
func Serialize(a *Archive) []string {
	return Writer{}.Lines(a)
}

// Lines collects the rendered lines of a, without newline terminators.
func (w Writer) Lines(a *Archive) []string {
	var out []string
	for line := range w.Render(a) {
		out = append(out, line)
	}
	return out
}

// Render yields the rendered lines of a lazily.
func (w Writer) Render(a *Archive) iter.Seq[string] {
	return func(yield func(string) bool) {
		var buf []byte
		for id, m := range a.All() {
			if !yield(id + "  [") {
				return
			}
			if m.Rows() == 0 {
				if !yield("]") {
					return
				}
				continue
			}
			for i := 0; i < m.Rows(); i++ {
				buf = w.appendRow(buf[:0], m.Row(i))
				if i == m.Rows()-1 {
					buf = append(buf, " ]"...)
				}
				if !yield(string(buf)) {
					return
				}
			}
		}
	}
}

// Write streams a to dst, one newline-terminated line at a time.
func (w Writer) Write(dst io.Writer, a *Archive) error {
	bw := bufio.NewWriterSize(dst, 64*1024)
	for line := range w.Render(a) {
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

func (w Writer) appendRow(buf []byte, row []float64) []byte {
	for _, v := range row {
		buf = append(buf, ' ')
		buf = w.appendValue(buf, v)
	}
	return buf
}

func (w Writer) appendValue(buf []byte, v float64) []byte {
	if !w.Fixed || w.Precision < 0 {
		return strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return strconv.AppendFloat(buf, v, 'f', w.Precision, 64)
}
