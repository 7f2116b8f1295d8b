package cpu

import (
	"errors"
	"fmt"

	"github.com/elysiagabe/ls8/io"
	"github.com/elysiagabe/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted         = errors.New(f("halted"))
	ErrBounds         = errors.New(f("out of bounds"))
	ErrStackEmpty     = errors.New(f("stack empty"))
	ErrStackFull      = errors.New(f("stack full"))
	ErrOutputMissing  = io.ErrOutputMissing
	ErrAluUnsupported = errors.New(f("unsupported ALU operation"))
	ErrDivisionByZero = errors.New(f("division by zero"))

	// Instruction decode errors
	ErrOpcodeAlu  = errors.New(f("alu"))
	ErrOpcodeArg1 = errors.New(f("arg1"))
	ErrOpcodeArg2 = errors.New(f("arg2"))

	// Loader errors
	ErrProgramTooLarge = errors.New(f("program too large"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrValueRange         = errors.New(f("value out of range"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrOpcode is an opcode with no entry in the dispatch table.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("unknown instruction %v", fmt.Sprintf("0b%08b", byte(eo.Op)))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrInstruction identifies the instruction that failed to execute.
type ErrInstruction struct {
	Pc   int
	Code Code
}

func (ei ErrInstruction) Error() string {
	return f("%v: %v", fmt.Sprintf("%02X", ei.Pc), ei.Code.String())
}

// ErrRegisterInvalid is a register operand outside of R0-R7.
type ErrRegisterInvalid byte

func (er ErrRegisterInvalid) Error() string {
	return f("register %v invalid", fmt.Sprintf("R%d", byte(er)))
}

func (er ErrRegisterInvalid) Unwrap() error {
	return ErrBounds
}

// ErrAddressRange is a memory access outside of RAM.
type ErrAddressRange int

func (ea ErrAddressRange) Error() string {
	return f("address %v out of range", fmt.Sprintf("0x%03X", int(ea)))
}

func (ea ErrAddressRange) Unwrap() error {
	return ErrBounds
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %v '%v' %v", fmt.Sprint(err.LineNo), err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, fmt.Sprint(err.Line), err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
