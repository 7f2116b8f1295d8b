package cpu

import (
	"fmt"
	"iter"
	"maps"
)

const (
	RAM_SIZE       = 256  // Bytes of addressable memory.
	REGISTER_COUNT = 8    // General purpose registers.
	REG_SP         = 7    // Register used as the stack pointer.
	STACK_TOP      = 0xf4 // Initial stack pointer; the stack grows down.
)

var _cpu_defines = map[string]string{
	"RAM_SIZE":   fmt.Sprintf("%d", RAM_SIZE),
	"STACK_TOP":  fmt.Sprintf("0x%02x", STACK_TOP),
	"SP":         fmt.Sprintf("R%d", REG_SP),
	"FL_LESS":    fmt.Sprintf("0b%03b", byte(FL_LESS)),
	"FL_GREATER": fmt.Sprintf("0b%03b", byte(FL_GREATER)),
	"FL_EQUAL":   fmt.Sprintf("0b%03b", byte(FL_EQUAL)),
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// RamRead returns the byte at an address.
func (cpu *Cpu) RamRead(addr byte) byte {
	return cpu.Ram[addr]
}

// RamWrite stores a byte at an address.
func (cpu *Cpu) RamWrite(addr byte, value byte) {
	cpu.Ram[addr] = value
}

// ramAt reads from an unbounded address, as computed from the PC.
func (cpu *Cpu) ramAt(addr int) (value byte, err error) {
	if addr < 0 || addr >= RAM_SIZE {
		err = ErrAddressRange(addr)
		return
	}

	value = cpu.Ram[addr]
	return
}

// reg returns the register selected by an operand byte.
func (cpu *Cpu) reg(index byte) (reg *byte, err error) {
	if int(index) >= len(cpu.Register) {
		err = ErrRegisterInvalid(index)
		return
	}

	reg = &cpu.Register[index]
	return
}
