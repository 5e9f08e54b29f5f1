// Package workload reads, writes, and generates memory access traces in the
// NVMain text format:
//
//	<cycle> <R|W> 0x<address> <data> <thread>
package workload

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Op is the kind of a trace access.
type Op byte

// Trace operations.
const (
	Read  Op = 'R'
	Write Op = 'W'
)

// A Record is one line of a trace.
type Record struct {
	Cycle    uint64
	Op       Op
	Address  uint64
	Data     string
	ThreadID int
}

// IsWrite tells whether the record is a write.
func (r Record) IsWrite() bool {
	return r.Op == Write
}

// String formats the record as a trace line, without the newline.
func (r Record) String() string {
	return fmt.Sprintf("%d %c 0x%x %s %d",
		r.Cycle, r.Op, r.Address, r.Data, r.ThreadID)
}

// ParseRecord parses one trace line.
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Record{}, fmt.Errorf("want 5 fields, got %d", len(fields))
	}

	cycle, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad cycle %q: %w", fields[0], err)
	}

	var op Op
	switch fields[1] {
	case "R":
		op = Read
	case "W":
		op = Write
	default:
		return Record{}, fmt.Errorf("bad operation %q", fields[1])
	}

	addr, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad address %q: %w", fields[2], err)
	}

	thread, err := strconv.Atoi(fields[4])
	if err != nil {
		return Record{}, fmt.Errorf("bad thread id %q: %w", fields[4], err)
	}

	return Record{
		Cycle:    cycle,
		Op:       op,
		Address:  addr,
		Data:     fields[3],
		ThreadID: thread,
	}, nil
}

// A Reader streams records from a trace. Blank lines and lines starting
// with '#' are skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Reader{scanner: s}
}

// Next returns the next record, or io.EOF at the end of the trace.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rec, err := ParseRecord(text)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}

		return rec, nil
	}

	err := r.scanner.Err()
	if err != nil {
		return Record{}, err
	}

	return Record{}, io.EOF
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record

	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}

		if err != nil {
			return records, err
		}

		records = append(records, rec)
	}
}

// A Writer writes records as trace lines.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer on w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes one record.
func (w *Writer) Write(r Record) error {
	_, err := w.w.WriteString(r.String() + "\n")
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
