// Package pcit1 reads count data from a TeachSpin PCIT1-A pulse
// counter/interval timer attached as a serial port. The instrument streams
// "<iteration>,<count>" lines on its own; nothing is ever written to it.
//
// Features:
//   - Opportunistic line reads that drain whatever the input buffer holds
//   - Blocking single-line reads bounded by a timeout
//   - Transparent fallback to a simulated counter when the port cannot be
//     opened or the "Simulation" pseudo-port is selected
package pcit1
