package ark

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strconv"
	"strings"
)

// DuplicatePolicy decides what happens when an identifier heads more than
// one record.
type DuplicatePolicy int

const (
	// DuplicateReject fails the parse with ErrDuplicateIdentifier.
	DuplicateReject DuplicatePolicy = iota
	// DuplicateLastWins keeps the newest matrix at the first position.
	DuplicateLastWins
)

// ParseDuplicatePolicy maps the config spelling to a policy.
func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "reject":
		return DuplicateReject, nil
	case "last_wins", "last-wins":
		return DuplicateLastWins, nil
	default:
		return DuplicateReject, fmt.Errorf("unknown duplicate policy %q", value)
	}
}

func (p DuplicatePolicy) String() string {
	if p == DuplicateLastWins {
		return "last_wins"
	}
	return "reject"
}

// Reader parses text archives. The zero value keeps every record and
// rejects duplicate identifiers.
type Reader struct {
	Retain     RetainFilter
	Duplicates DuplicatePolicy
	Logger     *slog.Logger
}

// Parse is shorthand for a Reader with the given retain filter.
func Parse(lines iter.Seq[string], retain RetainFilter) (*Archive, error) {
	return Reader{Retain: retain}.Parse(lines)
}

// ParseString parses an archive held in memory.
func ParseString(text string, retain RetainFilter) (*Archive, error) {
	return Parse(strings.Lines(text), retain)
}

// Parse consumes lines and returns the archive they describe. Stopping early
// is not possible; any error aborts the whole parse.
func (r Reader) Parse(lines iter.Seq[string]) (*Archive, error) {
	p := r.newParser()
	for line := range lines {
		if err := p.feed(line); err != nil {
			return nil, err
		}
	}
	return p.finish()
}

// Read parses an archive from a stream. Lines may be arbitrarily long.
func (r Reader) Read(src io.Reader) (*Archive, error) {
	p := r.newParser()
	br := bufio.NewReaderSize(src, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if ferr := p.feed(line); ferr != nil {
				return nil, ferr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
	}
	return p.finish()
}

type parserState int

const (
	betweenRecords parserState = iota
	inRecord
)

type parser struct {
	retain     RetainFilter
	duplicates DuplicatePolicy
	logger     *slog.Logger

	state     parserState
	line      int
	id        string
	startLine int
	rows      [][]float64

	seen map[string]struct{}
	out  *Archive
}

func (r Reader) newParser() *parser {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &parser{
		retain:     r.Retain,
		duplicates: r.Duplicates,
		logger:     logger,
		seen:       make(map[string]struct{}),
		out:        NewArchive(),
	}
}

func (p *parser) feed(raw string) error {
	p.line++
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil
	}
	switch {
	case strings.HasSuffix(line, "["):
		return p.open(line)
	case strings.Contains(line, "]"):
		return p.close(line)
	default:
		if p.state != inRecord {
			return p.fail(ErrUnexpectedData, firstField(line), "")
		}
		row, err := p.parseRow(line)
		if err != nil {
			return err
		}
		p.rows = append(p.rows, row)
		return nil
	}
}

func (p *parser) open(line string) error {
	if p.state == inRecord {
		return p.fail(ErrMalformedRecordStart, "", fmt.Sprintf("record opened at line %d is still open", p.startLine))
	}
	fields := strings.Fields(strings.TrimSuffix(line, "["))
	if len(fields) == 0 {
		return p.fail(ErrEmptyIdentifier, "", "")
	}
	id := fields[0]
	if _, dup := p.seen[id]; dup && p.duplicates == DuplicateReject {
		p.id = id
		return p.fail(ErrDuplicateIdentifier, "", "")
	}
	p.seen[id] = struct{}{}

	p.state = inRecord
	p.id = id
	p.startLine = p.line
	p.rows = nil
	return nil
}

func (p *parser) close(line string) error {
	if p.state != inRecord {
		return p.fail(ErrUnexpectedData, "]", "")
	}
	data, trailer, _ := strings.Cut(line, "]")
	if extra := strings.TrimSpace(trailer); extra != "" {
		return p.fail(ErrInvalidNumericToken, firstField(extra), "unexpected text after ']'")
	}
	if strings.TrimSpace(data) != "" {
		row, err := p.parseRow(data)
		if err != nil {
			return err
		}
		p.rows = append(p.rows, row)
	}
	if err := p.finalize(); err != nil {
		return err
	}
	p.state = betweenRecords
	p.id = ""
	p.rows = nil
	return nil
}

func (p *parser) finalize() error {
	if len(p.rows) > 0 {
		width := len(p.rows[0])
		for i, row := range p.rows[1:] {
			if len(row) != width {
				return p.fail(ErrInconsistentRowWidth, "", fmt.Sprintf("row %d has %d columns, want %d", i+2, len(row), width))
			}
		}
	}
	if !p.retain.Retains(p.id) {
		p.logger.Debug("record filtered", slog.String("id", p.id), slog.Int("line", p.startLine))
		return nil
	}
	m, err := NewMatrix(p.rows)
	if err != nil {
		return err
	}
	if p.out.Has(p.id) {
		p.logger.Debug("duplicate record replaced", slog.String("id", p.id), slog.Int("line", p.startLine))
	}
	if err := p.out.Set(p.id, m); err != nil {
		return err
	}
	p.logger.Debug("record parsed",
		slog.String("id", p.id),
		slog.Int("rows", m.Rows()),
		slog.Int("cols", m.Cols()),
	)
	return nil
}

func (p *parser) finish() (*Archive, error) {
	if p.state == inRecord {
		return nil, &ParseError{Kind: ErrUnterminatedRecord, Line: p.startLine, ID: p.id}
	}
	return p.out, nil
}

func (p *parser) parseRow(line string) ([]float64, error) {
	fields := strings.Fields(line)
	row := make([]float64, len(fields))
	for i, tok := range fields {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, p.fail(ErrInvalidNumericToken, tok, "")
		}
		row[i] = v
	}
	return row, nil
}

func (p *parser) fail(kind error, token, detail string) error {
	return &ParseError{Kind: kind, Line: p.line, ID: p.id, Token: token, Detail: detail}
}

func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}
