package cpu

import (
	"fmt"
	"strings"
)

// Opcode is an LS-8 instruction byte.
//
// Bit layout: AABCDDDD
//   - AA: number of operand bytes that follow (0-2).
//   - B: set for ALU operations.
//   - C: set if the instruction sets the PC itself.
//   - DDDD: instruction identifier.
type Opcode byte

const (
	OPERANDS_MASK  = 0b1100_0000 // Mask of the operand count.
	OPERANDS_SHIFT = 6           // Shift of the operand count.
	ALU_FLAG       = 0b0010_0000 // ALU operation.
	SETS_PC_FLAG   = 0b0001_0000 // Instruction sets the PC.
	ALU_OP_MASK    = 0b0000_1111 // ALU operation selector.
)

const (
	OP_NOP  = Opcode(0b0000_0000)
	OP_HLT  = Opcode(0b0000_0001)
	OP_RET  = Opcode(0b0001_0001)
	OP_PUSH = Opcode(0b0100_0101)
	OP_POP  = Opcode(0b0100_0110)
	OP_PRN  = Opcode(0b0100_0111)
	OP_PRA  = Opcode(0b0100_1000)
	OP_CALL = Opcode(0b0101_0000)
	OP_JMP  = Opcode(0b0101_0100)
	OP_JEQ  = Opcode(0b0101_0101)
	OP_JNE  = Opcode(0b0101_0110)
	OP_JGT  = Opcode(0b0101_0111)
	OP_JLT  = Opcode(0b0101_1000)
	OP_JLE  = Opcode(0b0101_1001)
	OP_JGE  = Opcode(0b0101_1010)
	OP_INC  = Opcode(0b0110_0101)
	OP_DEC  = Opcode(0b0110_0110)
	OP_NOT  = Opcode(0b0110_1001)
	OP_LDI  = Opcode(0b1000_0010)
	OP_LD   = Opcode(0b1000_0011)
	OP_ST   = Opcode(0b1000_0100)
	OP_ADD  = Opcode(0b1010_0000)
	OP_SUB  = Opcode(0b1010_0001)
	OP_MUL  = Opcode(0b1010_0010)
	OP_DIV  = Opcode(0b1010_0011)
	OP_MOD  = Opcode(0b1010_0100)
	OP_CMP  = Opcode(0b1010_0111)
	OP_AND  = Opcode(0b1010_1000)
	OP_OR   = Opcode(0b1010_1010)
	OP_XOR  = Opcode(0b1010_1011)
	OP_SHL  = Opcode(0b1010_1100)
	OP_SHR  = Opcode(0b1010_1101)
)

// AluOp is an ALU operation, numbered by the low nibble of its opcode.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_ADD = AluOp(0)  // add
	ALU_OP_SUB = AluOp(1)  // sub
	ALU_OP_MUL = AluOp(2)  // mul
	ALU_OP_DIV = AluOp(3)  // div
	ALU_OP_MOD = AluOp(4)  // mod
	ALU_OP_INC = AluOp(5)  // inc
	ALU_OP_DEC = AluOp(6)  // dec
	ALU_OP_CMP = AluOp(7)  // cmp
	ALU_OP_AND = AluOp(8)  // and
	ALU_OP_NOT = AluOp(9)  // not
	ALU_OP_OR  = AluOp(10) // or
	ALU_OP_XOR = AluOp(11) // xor
	ALU_OP_SHL = AluOp(12) // shl
	ALU_OP_SHR = AluOp(13) // shr
)

// Unary returns true if the operation ignores its second register.
func (op AluOp) Unary() bool {
	switch op {
	case ALU_OP_INC, ALU_OP_DEC, ALU_OP_NOT:
		return true
	}
	return false
}

// ArgKind is the kind of an instruction operand.
type ArgKind int

//go:generate go tool stringer -linecomment -type=ArgKind
const (
	ARG_REG = ArgKind(0) // reg
	ARG_IMM = ArgKind(1) // imm
)

// Flags is the condition register, laid out as 00000LGE.
type Flags byte

const (
	FL_LESS    = Flags(0b100)
	FL_GREATER = Flags(0b010)
	FL_EQUAL   = Flags(0b001)
)

// String returns the flags as "LGE", with clear bits shown as "-".
func (fl Flags) String() string {
	out := []byte("---")
	if fl&FL_LESS != 0 {
		out[0] = 'L'
	}
	if fl&FL_GREATER != 0 {
		out[1] = 'G'
	}
	if fl&FL_EQUAL != 0 {
		out[2] = 'E'
	}
	return string(out)
}

// opcodeDef describes the assembly form of an opcode.
type opcodeDef struct {
	Name string
	Args []ArgKind
}

var (
	noArgs  = []ArgKind{}
	regArg  = []ArgKind{ARG_REG}
	regReg  = []ArgKind{ARG_REG, ARG_REG}
	regImm  = []ArgKind{ARG_REG, ARG_IMM}
	_opcode = map[Opcode]opcodeDef{
		OP_NOP:  {"NOP", noArgs},
		OP_HLT:  {"HLT", noArgs},
		OP_RET:  {"RET", noArgs},
		OP_PUSH: {"PUSH", regArg},
		OP_POP:  {"POP", regArg},
		OP_PRN:  {"PRN", regArg},
		OP_PRA:  {"PRA", regArg},
		OP_CALL: {"CALL", regArg},
		OP_JMP:  {"JMP", regArg},
		OP_JEQ:  {"JEQ", regArg},
		OP_JNE:  {"JNE", regArg},
		OP_JGT:  {"JGT", regArg},
		OP_JLT:  {"JLT", regArg},
		OP_JLE:  {"JLE", regArg},
		OP_JGE:  {"JGE", regArg},
		OP_INC:  {"INC", regArg},
		OP_DEC:  {"DEC", regArg},
		OP_NOT:  {"NOT", regArg},
		OP_LDI:  {"LDI", regImm},
		OP_LD:   {"LD", regReg},
		OP_ST:   {"ST", regReg},
		OP_ADD:  {"ADD", regReg},
		OP_SUB:  {"SUB", regReg},
		OP_MUL:  {"MUL", regReg},
		OP_DIV:  {"DIV", regReg},
		OP_MOD:  {"MOD", regReg},
		OP_CMP:  {"CMP", regReg},
		OP_AND:  {"AND", regReg},
		OP_OR:   {"OR", regReg},
		OP_XOR:  {"XOR", regReg},
		OP_SHL:  {"SHL", regReg},
		OP_SHR:  {"SHR", regReg},
	}
)

// Operands returns the number of operand bytes following the opcode.
func (op Opcode) Operands() int {
	return int(op&OPERANDS_MASK) >> OPERANDS_SHIFT
}

// SetsPc returns true if the instruction moves the PC itself.
func (op Opcode) SetsPc() bool {
	return op&SETS_PC_FLAG != 0
}

// IsAlu returns true for ALU operations.
func (op Opcode) IsAlu() bool {
	return op&ALU_FLAG != 0
}

// AluOp returns the ALU operation selected by the opcode.
func (op Opcode) AluOp() AluOp {
	return AluOp(op & ALU_OP_MASK)
}

// Valid returns true if the opcode is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := _opcode[op]
	return ok
}

// Args returns the operand kinds of the opcode, or nil if it is unknown.
func (op Opcode) Args() []ArgKind {
	return _opcode[op].Args
}

// String returns the mnemonic of the opcode, or its bit pattern if unknown.
func (op Opcode) String() string {
	def, ok := _opcode[op]
	if !ok {
		return fmt.Sprintf("0b%08b", byte(op))
	}
	return def.Name
}

// Code is a fetched instruction: the opcode and the two bytes after it.
type Code struct {
	Op       Opcode
	Operands [2]byte
}

// MakeCode creates an instruction from an opcode and its operands.
func MakeCode(op Opcode, operands ...byte) (code Code) {
	code.Op = op
	copy(code.Operands[:], operands)
	return
}

// Bytes returns the encoded instruction, sized by its operand count.
func (code Code) Bytes() []byte {
	n := min(code.Op.Operands(), len(code.Operands))
	out := make([]byte, 0, 1+n)
	out = append(out, byte(code.Op))
	return append(out, code.Operands[:n]...)
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	def, ok := _opcode[code.Op]
	if !ok {
		return code.Op.String()
	}

	args := make([]string, len(def.Args))
	for n, kind := range def.Args {
		switch kind {
		case ARG_REG:
			args[n] = fmt.Sprintf("R%d", code.Operands[n])
		case ARG_IMM:
			args[n] = fmt.Sprintf("%d", code.Operands[n])
		}
	}

	if len(args) == 0 {
		return def.Name
	}

	return def.Name + " " + strings.Join(args, ",")
}
