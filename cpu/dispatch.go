package cpu

import (
	"errors"
	"log"
)

// handler executes an instruction, given both bytes following the opcode.
type handler func(cpu *Cpu, a, b byte) error

// dispatch maps every opcode to its handler. Unknown opcodes are nil.
var dispatch = [256]handler{
	OP_NOP:  (*Cpu).opNop,
	OP_HLT:  (*Cpu).opHlt,
	OP_LDI:  (*Cpu).opLdi,
	OP_LD:   (*Cpu).opLd,
	OP_ST:   (*Cpu).opSt,
	OP_PRN:  (*Cpu).opPrn,
	OP_PRA:  (*Cpu).opPra,
	OP_PUSH: (*Cpu).opPush,
	OP_POP:  (*Cpu).opPop,
	OP_CALL: (*Cpu).opCall,
	OP_RET:  (*Cpu).opRet,
	OP_JMP:  jumpIf(func(Flags) bool { return true }),
	OP_JEQ:  jumpIf(func(fl Flags) bool { return fl&FL_EQUAL != 0 }),
	OP_JNE:  jumpIf(func(fl Flags) bool { return fl&FL_EQUAL == 0 }),
	OP_JGT:  jumpIf(func(fl Flags) bool { return fl&FL_GREATER != 0 }),
	OP_JLT:  jumpIf(func(fl Flags) bool { return fl&FL_LESS != 0 }),
	OP_JGE:  jumpIf(func(fl Flags) bool { return fl&(FL_GREATER|FL_EQUAL) != 0 }),
	OP_JLE:  jumpIf(func(fl Flags) bool { return fl&(FL_LESS|FL_EQUAL) != 0 }),
	OP_ADD:  alu(OP_ADD),
	OP_SUB:  alu(OP_SUB),
	OP_MUL:  alu(OP_MUL),
	OP_DIV:  alu(OP_DIV),
	OP_MOD:  alu(OP_MOD),
	OP_INC:  alu(OP_INC),
	OP_DEC:  alu(OP_DEC),
	OP_CMP:  alu(OP_CMP),
	OP_AND:  alu(OP_AND),
	OP_NOT:  alu(OP_NOT),
	OP_OR:   alu(OP_OR),
	OP_XOR:  alu(OP_XOR),
	OP_SHL:  alu(OP_SHL),
	OP_SHR:  alu(OP_SHR),
}

// alu returns the handler for an ALU opcode.
func alu(op Opcode) handler {
	if !op.IsAlu() {
		log.Panicf("cpu: %v is not an ALU opcode", op)
	}
	aluOp := op.AluOp()
	return func(cpu *Cpu, a, b byte) error {
		return cpu.Alu(aluOp, a, b)
	}
}

// jumpIf returns a handler that sets the PC to the value of a register when
// cond holds for the flags, and otherwise steps over the instruction.
func jumpIf(cond func(fl Flags) bool) handler {
	return func(cpu *Cpu, a, _ byte) (err error) {
		target, err := cpu.reg(a)
		if err != nil {
			err = errors.Join(ErrOpcodeArg1, err)
			return
		}

		if cond(cpu.Fl) {
			cpu.Pc = int(*target)
		} else {
			cpu.Pc += 2
		}

		return
	}
}

func (cpu *Cpu) opNop(_, _ byte) error {
	return nil
}

func (cpu *Cpu) opHlt(_, _ byte) error {
	if cpu.Verbose {
		log.Printf("cpu: halt")
	}
	cpu.Running = false
	return nil
}

func (cpu *Cpu) opLdi(a, b byte) (err error) {
	reg, err := cpu.reg(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}

	*reg = b
	return
}

// opLd loads register a from the address held in register b.
func (cpu *Cpu) opLd(a, b byte) (err error) {
	dst, err := cpu.reg(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}
	addr, err := cpu.reg(b)
	if err != nil {
		err = errors.Join(ErrOpcodeArg2, err)
		return
	}

	*dst = cpu.RamRead(*addr)
	return
}

// opSt stores register b at the address held in register a.
func (cpu *Cpu) opSt(a, b byte) (err error) {
	addr, err := cpu.reg(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}
	src, err := cpu.reg(b)
	if err != nil {
		err = errors.Join(ErrOpcodeArg2, err)
		return
	}

	cpu.RamWrite(*addr, *src)
	return
}

func (cpu *Cpu) opPrn(a, _ byte) (err error) {
	reg, err := cpu.reg(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}
	if cpu.Output == nil {
		err = ErrOutputMissing
		return
	}

	return cpu.Output.PrintNumber(*reg)
}

func (cpu *Cpu) opPra(a, _ byte) (err error) {
	reg, err := cpu.reg(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}
	if cpu.Output == nil {
		err = ErrOutputMissing
		return
	}

	return cpu.Output.PrintChar(*reg)
}

func (cpu *Cpu) opPush(a, _ byte) (err error) {
	reg, err := cpu.reg(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}

	return cpu.Push(*reg)
}

func (cpu *Cpu) opPop(a, _ byte) (err error) {
	reg, err := cpu.reg(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}

	value, err := cpu.Pop()
	if err != nil {
		return
	}

	*reg = value
	return
}

// opCall pushes the address following the CALL, then jumps to the address
// held in register a.
func (cpu *Cpu) opCall(a, _ byte) (err error) {
	reg, err := cpu.reg(a)
	if err != nil {
		err = errors.Join(ErrOpcodeArg1, err)
		return
	}

	ret := cpu.Pc + 2
	if ret >= RAM_SIZE {
		err = ErrAddressRange(ret)
		return
	}

	err = cpu.Push(byte(ret))
	if err != nil {
		return
	}

	// Read after the push, in case the target is the stack pointer.
	cpu.Pc = int(*reg)
	return
}

func (cpu *Cpu) opRet(_, _ byte) (err error) {
	value, err := cpu.Pop()
	if err != nil {
		return
	}

	cpu.Pc = int(value)
	return
}
