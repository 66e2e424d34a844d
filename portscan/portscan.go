// Package portscan lists the serial ports a PCIT1-A may be attached to and
// picks a sensible default, the way the connect panel of a bench
// instrument GUI would.
package portscan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/Thiagojm/pcit_cli_linux/pcit1"
)

// PortInfo describes one selectable port.
type PortInfo struct {
	// Name is the device path passed to pcit1.Open, e.g. "/dev/ttyACM0".
	Name string
	// Description is the human label shown in listings.
	Description string
	VID, PID    string
	Serial      string
	Simulation  bool
}

// Bridge is a USB-serial bridge chip seen on the bus.
type Bridge struct {
	VID, PID uint16
	Vendor   string
}

func (b Bridge) String() string {
	return fmt.Sprintf("%s (%04X:%04X)", b.Vendor, b.VID, b.PID)
}

// bridgeVendors maps the USB vendor IDs of common USB-serial bridges, the
// PCIT1-A being Arduino based.
var bridgeVendors = map[uint16]string{
	0x2341: "Arduino",
	0x2a03: "Arduino",
	0x0403: "FTDI",
	0x1a86: "WCH CH340",
	0x10c4: "Silicon Labs CP210x",
	0x067b: "Prolific",
}

// replaced in tests
var (
	detailedPorts = enumerator.GetDetailedPortsList
	usbScan       = usbBridges
)

// List enumerates serial ports and appends the Simulation pseudo-port.
func List() ([]PortInfo, error) {
	ports, err := detailedPorts()
	if err != nil {
		return nil, fmt.Errorf("enumerating ports: %w", err)
	}

	var out []PortInfo
	for _, p := range ports {
		if p == nil {
			continue
		}
		out = append(out, PortInfo{
			Name:        p.Name,
			Description: describe(p),
			VID:         strings.ToUpper(p.VID),
			PID:         strings.ToUpper(p.PID),
			Serial:      p.SerialNumber,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	out = append(out, PortInfo{
		Name:        pcit1.SimulationPort,
		Description: pcit1.SimulationPort,
		Simulation:  true,
	})
	return out, nil
}

// Bridges reports USB-serial bridges seen on the bus, including ones whose
// serial driver is not bound and therefore have no port.
func Bridges() []Bridge {
	return usbScan()
}

func describe(p *enumerator.PortDetails) string {
	var parts []string
	if p.Product != "" {
		parts = append(parts, p.Product)
	}
	if p.IsUSB {
		if v, err := strconv.ParseUint(p.VID, 16, 16); err == nil {
			if name, ok := bridgeVendors[uint16(v)]; ok && !strings.Contains(p.Product, name) {
				parts = append(parts, name)
			}
		}
	}
	if len(parts) == 0 {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", strings.Join(parts, " "), p.Name)
}

// DefaultIndex returns the first port whose description mentions Arduino,
// otherwise 0.
func DefaultIndex(ports []PortInfo) int {
	for i, p := range ports {
		if strings.Contains(p.Description, "Arduino") {
			return i
		}
	}
	return 0
}

// Resolve maps a user choice onto a port. The choice may be a device path,
// a 1-based index into ports, or a substring of a description. An empty
// choice selects DefaultIndex.
func Resolve(choice string, ports []PortInfo) (PortInfo, error) {
	if len(ports) == 0 {
		return PortInfo{}, fmt.Errorf("no ports available")
	}
	if choice == "" {
		return ports[DefaultIndex(ports)], nil
	}
	for _, p := range ports {
		if p.Name == choice {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(choice); err == nil {
		if n < 1 || n > len(ports) {
			return PortInfo{}, fmt.Errorf("port index %d out of range 1..%d", n, len(ports))
		}
		return ports[n-1], nil
	}
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.Description), strings.ToLower(choice)) {
			return p, nil
		}
	}
	// Unlisted paths are passed through; pcit1 falls back to simulation
	// if they cannot be opened.
	return PortInfo{Name: choice, Description: choice}, nil
}
