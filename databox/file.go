package databox

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// headerPrefix marks header lines in text files: "#key<TAB>quoted value".
const headerPrefix = "#"

// ErrExists is returned by Save when the file exists and overwrite is off.
var ErrExists = errors.New("file exists")

// IsWorkbook reports whether path is saved as an Excel workbook.
func IsWorkbook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// Save writes the box to path. Paths ending in .xlsx are written as a
// workbook, everything else as delimited text.
func (b *Box) Save(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if IsWorkbook(path) {
		return b.saveWorkbook(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := b.WriteText(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Load replaces the box contents with the file at path. With headerOnly the
// columns are left untouched.
func (b *Box) Load(path string, headerOnly bool) error {
	if IsWorkbook(path) {
		return b.loadWorkbook(path, headerOnly)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := b.ReadText(f, headerOnly); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// WriteText writes header lines, the ckeys line and the rows.
func (b *Box) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, k := range b.hkeys {
		if _, err := fmt.Fprintf(bw, "%s%s\t%s\n", headerPrefix, k, strconv.Quote(b.header[k])); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if len(b.columns) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	cw.Comma = b.comma()
	if err := cw.Write(b.ckeys); err != nil {
		return err
	}
	rec := make([]string, len(b.columns))
	for r := 0; r < b.Rows(); r++ {
		for c := range b.columns {
			rec[c] = FormatValue(b.columns[c][r])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadText parses the format written by WriteText.
func (b *Box) ReadText(r io.Reader, headerOnly bool) error {
	br := bufio.NewReader(r)
	b.ClearHeader()
	for {
		peek, err := br.Peek(1)
		if err != nil || string(peek) != headerPrefix {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		b.SetHeader(parseHeaderLine(line))
	}
	if headerOnly {
		return nil
	}

	cr := csv.NewReader(br)
	cr.Comma = b.comma()
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return err
	}
	b.ClearColumns()
	if len(records) == 0 {
		return nil
	}
	return b.setRecords(records[0], records[1:])
}

// setRecords fills the columns from string records; blank cells read as NaN.
func (b *Box) setRecords(ckeys []string, rows [][]string) error {
	cols := make([][]float64, len(ckeys))
	for i, rec := range rows {
		if len(rec) > len(ckeys) {
			return fmt.Errorf("%w: row %d has %d values for %d keys", ErrRowLength, i+1, len(rec), len(ckeys))
		}
		for c := range ckeys {
			v := ""
			if c < len(rec) {
				v = rec[c]
			}
			f, err := ParseValue(v)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i+1, ckeys[c], err)
			}
			cols[c] = append(cols[c], f)
		}
	}
	return b.SetColumns(ckeys, cols)
}

func parseHeaderLine(line string) (string, string) {
	line = strings.TrimRight(strings.TrimPrefix(line, headerPrefix), "\r\n")
	key, raw, ok := strings.Cut(line, "\t")
	if !ok {
		return line, ""
	}
	val, err := strconv.Unquote(raw)
	if err != nil {
		// hand-edited headers may be unquoted
		return key, raw
	}
	return key, val
}

func (b *Box) comma() rune {
	r, _ := utf8.DecodeRuneInString(b.delimiter())
	return r
}

// FormatValue renders v with the shortest exact representation.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseValue parses a cell; an empty cell is NaN.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
