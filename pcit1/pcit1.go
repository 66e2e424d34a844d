package pcit1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// SimulationPort is the pseudo-port name that selects the simulated counter.
const SimulationPort = "Simulation"

const (
	// DefaultBaudRate must match the instrument's setting.
	DefaultBaudRate = 230400
	// DefaultTimeout bounds how long a partial line may take to complete.
	DefaultTimeout = 15 * time.Second

	// pollTimeout is the serial read timeout used to test for an empty
	// input buffer.
	pollTimeout = 20 * time.Millisecond
)

// BaudRates lists the rates the instrument can be configured for.
var BaudRates = []int{9600, 57600, 115200, 230400}

var (
	// ErrMalformedLine is returned when a line is not "<iteration>,<count>".
	ErrMalformedLine = errors.New("malformed line")
	// ErrTimeout is returned when a line does not complete in time.
	ErrTimeout = errors.New("read timeout")
	// ErrClosed is returned by reads after Disconnect.
	ErrClosed = errors.New("device disconnected")
)

// ValidBaudRate reports whether rate is one of BaudRates.
func ValidBaudRate(rate int) bool {
	for _, b := range BaudRates {
		if b == rate {
			return true
		}
	}
	return false
}

// Reading is one line reported by the counter.
type Reading struct {
	Iteration int
	Count     int
}

// Options configures Open. Zero values select the defaults.
type Options struct {
	BaudRate int
	Timeout  time.Duration
	// Seed seeds the simulator. Zero seeds from the clock.
	Seed uint64
}

func (o Options) withDefaults() Options {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// port is the subset of serial.Port the reader needs.
type port interface {
	Read(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// openPort is replaced in tests.
var openPort = func(name string, mode *serial.Mode) (port, error) {
	return serial.Open(name, mode)
}

// Device is a connection to a PCIT1-A, real or simulated.
type Device struct {
	mu      sync.Mutex
	name    string
	opts    Options
	conn    port
	pending []byte
	sim     *simulator
	closed  bool
}

// Open connects to the named serial port. It never fails: when name is
// SimulationPort or the port cannot be opened the device runs in
// simulation mode and the reason is logged.
func Open(name string, opts Options) *Device {
	opts = opts.withDefaults()
	d := &Device{name: name, opts: opts}

	if name == SimulationPort || name == "" {
		d.sim = newSimulator(opts.Seed)
		return d
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	conn, err := openPort(name, mode)
	if err == nil {
		err = conn.SetReadTimeout(pollTimeout)
		if err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("port", name).Int("baud", opts.BaudRate).
			Msg("could not open connection, entering simulation mode")
		d.sim = newSimulator(opts.Seed)
		return d
	}

	d.conn = conn
	log.Info().Str("port", name).Int("baud", opts.BaudRate).Msg("connected")
	return d
}

// Simulation reports whether the device is producing simulated data.
func (d *Device) Simulation() bool { return d.sim != nil }

// Port returns the port name passed to Open.
func (d *Device) Port() string { return d.name }

// ReadLine blocks until one complete line arrives, or the timeout elapses.
func (d *Device) ReadLine(ctx context.Context) (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Reading{}, ErrClosed
	}
	if d.sim != nil {
		return d.sim.next(), nil
	}

	deadline := time.Now().Add(d.opts.Timeout)
	for {
		if line, ok := d.nextLine(); ok {
			return ParseLine(line)
		}
		if err := ctx.Err(); err != nil {
			return Reading{}, err
		}
		if time.Now().After(deadline) {
			return Reading{}, fmt.Errorf("%w after %s", ErrTimeout, d.opts.Timeout)
		}
		if _, err := d.fill(); err != nil {
			return Reading{}, err
		}
	}
}

// ReadAll returns every complete line waiting in the input buffer. It does
// not wait for new data, except to finish a line that has started arriving.
// Malformed lines are logged and skipped.
func (d *Device) ReadAll(ctx context.Context) ([]Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if d.sim != nil {
		return d.sim.burst(), nil
	}

	var out []Reading
	var deadline time.Time
	for {
		n, err := d.fill()
		if err != nil {
			return out, err
		}
		for {
			line, ok := d.nextLine()
			if !ok {
				break
			}
			r, err := ParseLine(line)
			if err != nil {
				log.Warn().Err(err).Str("port", d.name).Msg("skipping line")
				continue
			}
			out = append(out, r)
		}
		if n > 0 {
			continue
		}
		if len(bytes.TrimSpace(d.pending)) == 0 {
			d.pending = d.pending[:0]
			return out, nil
		}
		if deadline.IsZero() {
			deadline = time.Now().Add(d.opts.Timeout)
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if time.Now().After(deadline) {
			return out, fmt.Errorf("%w: partial line %q", ErrTimeout, d.pending)
		}
	}
}

// Disconnect closes the port. Calling it more than once is harmless, and
// it does nothing in simulation mode.
func (d *Device) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.sim != nil {
		return nil
	}
	d.closed = true
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", d.name, err)
	}
	log.Info().Str("port", d.name).Msg("disconnected")
	return nil
}

// fill performs one short read into the pending buffer. A zero count means
// the input buffer was empty.
func (d *Device) fill() (int, error) {
	buf := make([]byte, 512)
	n, err := d.conn.Read(buf)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", d.name, err)
	}
	d.pending = append(d.pending, buf[:n]...)
	return n, nil
}

// nextLine pops the next non-empty newline-terminated line.
func (d *Device) nextLine() (string, bool) {
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			return "", false
		}
		line := strings.TrimSpace(string(d.pending[:i]))
		d.pending = d.pending[i+1:]
		if line != "" {
			return line, true
		}
	}
}

// ParseLine parses "<iteration>,<count>" with surrounding "\n\r" and
// whitespace ignored.
func ParseLine(line string) (Reading, error) {
	line = strings.Trim(line, "\n\r \t")
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return Reading{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	it, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Reading{}, fmt.Errorf("%w: iteration %q", ErrMalformedLine, fields[0])
	}
	c, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Reading{}, fmt.Errorf("%w: count %q", ErrMalformedLine, fields[1])
	}
	return Reading{Iteration: it, Count: c}, nil
}
