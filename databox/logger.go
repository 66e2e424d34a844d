package databox

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Header keys written when a log file is started.
const (
	HeaderNote              = "DataboxPlot_Note"
	HeaderLogCreated        = "DataboxPlot_LogFileCreated"
	HeaderLogCreatedSeconds = "DataboxPlot_LogFileCreated(s)"
	HeaderLogInitialRows    = "Log File Initial Row Count"
)

// Logger appends each new row to a text file as it arrives.
type Logger struct {
	path      string
	delimiter string
}

// StartLog stamps the box header, saves the box to path (overwriting) and
// returns a Logger that appends further rows to the same file. An empty box
// is keyed with ckeys first so the file starts with a keys line.
func StartLog(b *Box, path string, ckeys []string, note string, now time.Time) (*Logger, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if IsWorkbook(path) {
		return nil, fmt.Errorf("log file %s: rows can only be appended to text files", path)
	}
	if b.Len() == 0 && len(ckeys) > 0 {
		if err := b.SetColumns(ckeys, make([][]float64, len(ckeys))); err != nil {
			return nil, err
		}
	}
	b.SetHeader(HeaderNote, note)
	b.SetHeader(HeaderLogCreated, now.Format(time.ANSIC))
	b.SetHeader(HeaderLogCreatedSeconds, strconv.FormatFloat(float64(now.UnixNano())/1e9, 'f', 6, 64))
	b.SetHeader(HeaderLogInitialRows, strconv.Itoa(b.Rows()))

	if err := b.Save(path, true); err != nil {
		return nil, err
	}
	return &Logger{path: path, delimiter: b.delimiter()}, nil
}

// Path returns the file being appended to.
func (l *Logger) Path() string { return l.path }

// Append writes one delimited line.
func (l *Logger) Append(row []float64) error {
	vals := make([]string, len(row))
	for i, v := range row {
		vals[i] = FormatValue(v)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}
	if _, err := f.WriteString(strings.Join(vals, l.delimiter) + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append log %s: %w", l.path, err)
	}
	return f.Close()
}

// AutosavePath returns the numbered file name used by autosave,
// "<dir>/0007 <name>".
func AutosavePath(dir, name string, number int) string {
	return filepath.Join(dir, fmt.Sprintf("%04d %s", number, name))
}
