// Package databox holds column-oriented numeric data with an ordered
// key/value header, and reads and writes it as delimited text or as an
// Excel workbook.
package databox

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultDelimiter separates columns in text files.
const DefaultDelimiter = ","

var (
	// ErrRowLength is returned when a row does not match the column count.
	ErrRowLength = errors.New("row length does not match columns")
	// ErrNoColumn is returned for an unknown column index or key.
	ErrNoColumn = errors.New("no such column")
)

// Box is a set of equally long named columns plus a header.
type Box struct {
	// Delimiter is used when saving and loading text files.
	Delimiter string

	ckeys   []string
	columns [][]float64
	hkeys   []string
	header  map[string]string
}

// New returns an empty box using DefaultDelimiter.
func New() *Box {
	return &Box{Delimiter: DefaultDelimiter, header: map[string]string{}}
}

// Ckeys returns the column keys in order.
func (b *Box) Ckeys() []string { return slices.Clone(b.ckeys) }

// Len returns the number of columns.
func (b *Box) Len() int { return len(b.columns) }

// Rows returns the number of rows.
func (b *Box) Rows() int {
	if len(b.columns) == 0 {
		return 0
	}
	return len(b.columns[0])
}

// Column returns a copy of column i.
func (b *Box) Column(i int) ([]float64, error) {
	if i < 0 || i >= len(b.columns) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoColumn, i, len(b.columns))
	}
	return slices.Clone(b.columns[i]), nil
}

// ColumnByKey returns a copy of the column named key.
func (b *Box) ColumnByKey(key string) ([]float64, error) {
	i := slices.Index(b.ckeys, key)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, key)
	}
	return b.Column(i)
}

// SetColumns replaces all data. Every column must have the same length.
func (b *Box) SetColumns(ckeys []string, columns [][]float64) error {
	if len(ckeys) != len(columns) {
		return fmt.Errorf("%d keys for %d columns", len(ckeys), len(columns))
	}
	for i := range columns {
		if len(columns[i]) != len(columns[0]) {
			return fmt.Errorf("%w: column %q has %d rows, want %d", ErrRowLength, ckeys[i], len(columns[i]), len(columns[0]))
		}
	}
	b.ckeys = slices.Clone(ckeys)
	b.columns = make([][]float64, len(columns))
	for i := range columns {
		b.columns[i] = slices.Clone(columns[i])
	}
	return nil
}

// AppendRow adds one row. If ckeys is non-nil and differs from the current
// keys the columns are cleared and re-keyed first; an empty box without
// ckeys gets keys c0, c1, .... When history is positive only the most
// recent history rows are kept.
func (b *Box) AppendRow(row []float64, ckeys []string, history int) error {
	if ckeys != nil && !slices.Equal(ckeys, b.ckeys) {
		b.ClearColumns()
		if len(ckeys) != len(row) {
			return fmt.Errorf("%w: %d values for %d keys", ErrRowLength, len(row), len(ckeys))
		}
		b.ckeys = slices.Clone(ckeys)
		b.columns = make([][]float64, len(ckeys))
	}
	if len(b.columns) == 0 {
		b.ckeys = make([]string, len(row))
		for i := range row {
			b.ckeys[i] = fmt.Sprintf("c%d", i)
		}
		b.columns = make([][]float64, len(row))
	}
	if len(row) != len(b.columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrRowLength, len(row), len(b.columns))
	}

	for i, v := range row {
		b.columns[i] = append(b.columns[i], v)
		if history > 0 && len(b.columns[i]) > history {
			b.columns[i] = slices.Clone(b.columns[i][len(b.columns[i])-history:])
		}
	}
	return nil
}

// SetHeader sets a header entry, keeping first-insertion order.
func (b *Box) SetHeader(key, value string) {
	if b.header == nil {
		b.header = map[string]string{}
	}
	if _, ok := b.header[key]; !ok {
		b.hkeys = append(b.hkeys, key)
	}
	b.header[key] = value
}

// Header returns a header entry.
func (b *Box) Header(key string) (string, bool) {
	v, ok := b.header[key]
	return v, ok
}

// HeaderKeys returns the header keys in insertion order.
func (b *Box) HeaderKeys() []string { return slices.Clone(b.hkeys) }

// ClearColumns drops all columns and keys but keeps the header.
func (b *Box) ClearColumns() {
	b.ckeys = nil
	b.columns = nil
}

// ClearHeader drops the header.
func (b *Box) ClearHeader() {
	b.hkeys = nil
	b.header = map[string]string{}
}

// Clear drops columns and header.
func (b *Box) Clear() {
	b.ClearColumns()
	b.ClearHeader()
}

func (b *Box) delimiter() string {
	if b.Delimiter == "" {
		return DefaultDelimiter
	}
	return b.Delimiter
}
