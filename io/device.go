// Package io provides the output devices of the LS-8 emulator.
// The CPU prints numbers (PRN) and characters (PRA) to a Device; Tape
// writes them to a byte stream.
package io

// Device defines the interface for the LS-8 output devices.
type Device interface {
	// Rewind resets the device to its initial state.
	Rewind()
	// PrintNumber writes the decimal value of a byte, and a newline.
	PrintNumber(value byte) error
	// PrintChar writes a byte as a single character.
	PrintChar(value byte) error
}
