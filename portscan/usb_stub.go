//go:build !linux

package portscan

// Non-Linux platforms rely on serial enumeration only.
func usbBridges() []Bridge { return nil }
