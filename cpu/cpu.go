package cpu

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/elysiagabe/ls8/io"
)

// Device is an output device interface.
type Device io.Device

// Cpu is the simulation context for the LS-8 processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Ram      [RAM_SIZE]byte       // Code, data, and stack.
	Register [REGISTER_COUNT]byte // Register bank; R7 is the stack pointer.
	Pc       int                  // Address of the next instruction.
	Fl       Flags                // Result of the last comparison.
	Running  bool                 // Cleared by HLT or a fatal error.

	Output Device // Destination of PRN and PRA.

	Ticks int // Instructions executed since reset.
}

// NewCpu creates a new, halted, CPU.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc",
		"fl",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"stack",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%02X", cpu.Pc)
		case "fl":
			strval = cpu.Fl.String()
		case "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7":
			val := cpu.Register[byte(reg[1]-'0')]
			strval = fmt.Sprintf("%02X (%d)", val, val)
		case "stack":
			val, ok := cpu.Peek()
			if ok {
				strval = fmt.Sprintf("%02X", val)
			} else {
				strval = "--"
			}
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Trace returns a single line summary of the PC, the bytes at the PC, and
// the register bank.
func (cpu *Cpu) Trace() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "TRACE: %02X | %v |", cpu.Pc, cpu.Fl)
	for n := range 3 {
		value, _ := cpu.ramAt(cpu.Pc + n)
		fmt.Fprintf(&sb, " %02X", value)
	}
	sb.WriteString(" |")
	for _, value := range cpu.Register {
		fmt.Fprintf(&sb, " %02X", value)
	}

	return sb.String()
}

// Load replaces the contents of RAM with a program image at address 0.
func (cpu *Cpu) Load(program []byte) (err error) {
	if len(program) > len(cpu.Ram) {
		err = ErrProgramTooLarge
		return
	}

	clear(cpu.Ram[:])
	copy(cpu.Ram[:], program)

	return
}

// Reset the CPU state.
// - Clears the registers and flags.
// - Sets the stack pointer to STACK_TOP.
// - Sets the PC to 0, and starts running.
// - Rewinds the output device.
//
// RAM is left intact.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Register[REG_SP] = STACK_TOP
	cpu.Fl = 0
	cpu.Pc = 0
	cpu.Ticks = 0
	cpu.Running = true

	if cpu.Output != nil {
		cpu.Output.Rewind()
	}
}

// FetchCode fetches the instruction at the PC.
//
// Both operand bytes are always read. Bytes past the end of RAM read as
// zero, unless the instruction needs them.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	op, err := cpu.ramAt(cpu.Pc)
	if err != nil {
		return
	}

	code.Op = Opcode(op)

	need := 0
	if dispatch[code.Op] != nil {
		need = code.Op.Operands()
	}

	for n := range code.Operands {
		addr := cpu.Pc + 1 + n
		if addr >= RAM_SIZE {
			if n < need {
				err = ErrAddressRange(addr)
				return
			}
			continue
		}
		code.Operands[n] = cpu.Ram[addr]
	}

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	if !cpu.Running {
		err = ErrHalted
		return
	}

	code, err := cpu.FetchCode()
	if err != nil {
		cpu.Running = false
		return
	}

	if cpu.Verbose {
		log.Printf("%v  %v", cpu.Trace(), code)
	}

	err = cpu.Execute(code)

	return
}

// Run ticks the CPU until it halts.
func (cpu *Cpu) Run() (err error) {
	for {
		err = cpu.Tick()
		if errors.Is(err, ErrHalted) {
			return nil
		}
		if err != nil {
			return
		}
	}
}

// Execute executes a single decoded instruction located at the PC.
//
// Any error halts the CPU and leaves the PC at the failing instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			cpu.Running = false
		}
	}()

	handler := dispatch[code.Op]
	if handler == nil {
		err = ErrOpcode(code)
		return
	}

	pc := cpu.Pc

	err = handler(cpu, code.Operands[0], code.Operands[1])
	if err != nil {
		cpu.Pc = pc
		err = errors.Join(ErrInstruction{Pc: pc, Code: code}, err)
		return
	}

	if !code.Op.SetsPc() {
		cpu.Pc += 1 + code.Op.Operands()
	}

	cpu.Ticks++

	return
}

// Alu performs an ALU operation on two registers, storing the result in
// the first. CMP only updates the flags.
func (cpu *Cpu) Alu(op AluOp, reg_a, reg_b byte) (err error) {
	a, err := cpu.reg(reg_a)
	if err != nil {
		err = errors.Join(ErrOpcodeAlu, ErrOpcodeArg1, err)
		return
	}

	var value byte
	if !op.Unary() {
		var b *byte
		b, err = cpu.reg(reg_b)
		if err != nil {
			err = errors.Join(ErrOpcodeAlu, ErrOpcodeArg2, err)
			return
		}
		value = *b
	}

	if op == ALU_OP_CMP {
		cpu.Fl = compare(*a, value)
		return
	}

	output, err := doAlu(op, *a, value)
	if err != nil {
		err = errors.Join(ErrOpcodeAlu, err)
		return
	}

	*a = output

	return
}

// compare returns the flags for a comparison of a to b.
func compare(a, b byte) Flags {
	switch {
	case a < b:
		return FL_LESS
	case a > b:
		return FL_GREATER
	default:
		return FL_EQUAL
	}
}

// doAlu performs the requested ALU action, and returns the output value.
// Results wrap to 8 bits.
func doAlu(op AluOp, input byte, value byte) (output byte, err error) {
	switch op {
	case ALU_OP_ADD:
		output = input + value
	case ALU_OP_SUB:
		output = input - value
	case ALU_OP_MUL:
		output = input * value
	case ALU_OP_DIV:
		if value == 0 {
			err = ErrDivisionByZero
			return
		}
		output = input / value
	case ALU_OP_MOD:
		if value == 0 {
			err = ErrDivisionByZero
			return
		}
		output = input % value
	case ALU_OP_INC:
		output = input + 1
	case ALU_OP_DEC:
		output = input - 1
	case ALU_OP_AND:
		output = input & value
	case ALU_OP_NOT:
		output = ^input
	case ALU_OP_OR:
		output = input | value
	case ALU_OP_XOR:
		output = input ^ value
	case ALU_OP_SHL:
		output = input << value
	case ALU_OP_SHR:
		output = input >> value
	default:
		err = ErrAluUnsupported
	}

	return
}
