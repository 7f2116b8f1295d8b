package cpu

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elysiagabe/ls8/io"
)

// newTestCpu loads a program into a reset CPU with a tape attached.
func newTestCpu(t *testing.T, program ...byte) (cpu *Cpu, output *bytes.Buffer) {
	output = &bytes.Buffer{}

	cpu = NewCpu()
	cpu.Output = &io.Tape{Output: output}

	err := cpu.Load(program)
	assert.NoError(t, err)

	cpu.Reset()

	return
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.False(cpu.Running)

	cpu.Register[0] = 0x12
	cpu.Pc = 0x40
	cpu.Fl = FL_EQUAL
	cpu.Ram[0x10] = 0x55

	cpu.Reset()

	assert.True(cpu.Running)
	assert.Equal(0, cpu.Pc)
	assert.Equal(Flags(0), cpu.Fl)
	assert.Equal(byte(0), cpu.Register[0])
	assert.Equal(byte(STACK_TOP), cpu.Register[REG_SP])
	assert.Equal(byte(0x55), cpu.Ram[0x10])
}

func TestCpu_Load(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Ram[0x80] = 0x12

	err := cpu.Load([]byte{0x01})
	assert.NoError(err)
	assert.Equal(byte(0x01), cpu.Ram[0])
	assert.Equal(byte(0), cpu.Ram[0x80])

	err = cpu.Load(make([]byte, RAM_SIZE+1))
	assert.ErrorIs(err, ErrProgramTooLarge)
}

func TestCpu_Print8(t *testing.T) {
	assert := assert.New(t)

	// LDI R0,8; PRN R0; HLT
	cpu, output := newTestCpu(t,
		0b10000010, 0b00000000, 0b00001000,
		0b01000111, 0b00000000,
		0b00000001,
	)

	err := cpu.Run()
	assert.NoError(err)
	assert.Equal("8\n", output.String())
	assert.False(cpu.Running)
	assert.Equal(6, cpu.Pc)
	assert.Equal(3, cpu.Ticks)

	err = cpu.Tick()
	assert.ErrorIs(err, ErrHalted)
	assert.Equal(6, cpu.Pc)
	assert.Equal(3, cpu.Ticks)
}

func TestCpu_Mul(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		byte(OP_LDI), 0, 8,
		byte(OP_LDI), 1, 9,
		byte(OP_MUL), 0, 1,
		byte(OP_PRN), 0,
		byte(OP_HLT),
	)

	err := cpu.Run()
	assert.NoError(err)
	assert.Equal("72\n", output.String())
	assert.Equal(byte(9), cpu.Register[1])
}

func TestCpu_Alu(t *testing.T) {
	table := [](struct {
		op       Opcode
		a, b     byte
		expected byte
	}){
		{OP_ADD, 200, 100, 44},
		{OP_ADD, 2, 3, 5},
		{OP_SUB, 3, 5, 254},
		{OP_SUB, 9, 4, 5},
		{OP_MUL, 20, 20, 144},
		{OP_MUL, 8, 9, 72},
		{OP_DIV, 7, 2, 3},
		{OP_MOD, 7, 3, 1},
		{OP_AND, 0b1100, 0b1010, 0b1000},
		{OP_OR, 0b1100, 0b1010, 0b1110},
		{OP_XOR, 0b1100, 0b1010, 0b0110},
		{OP_SHL, 0x81, 1, 0x02},
		{OP_SHL, 0x01, 8, 0x00},
		{OP_SHR, 0x80, 7, 0x01},
		{OP_INC, 255, 0, 0},
		{OP_INC, 7, 0, 8},
		{OP_DEC, 0, 0, 255},
		{OP_DEC, 8, 0, 7},
		{OP_NOT, 0x0f, 0, 0xf0},
	}

	for _, entry := range table {
		t.Run(entry.op.String(), func(t *testing.T) {
			assert := assert.New(t)

			cpu, _ := newTestCpu(t)
			cpu.Register[2] = entry.a
			cpu.Register[3] = entry.b

			err := cpu.Execute(MakeCode(entry.op, 2, 3))
			assert.NoError(err)
			assert.Equal(entry.expected, cpu.Register[2])
			assert.Equal(entry.b, cpu.Register[3])
			assert.Equal(1+entry.op.Operands(), cpu.Pc)
		})
	}
}

func TestCpu_Alu_DivisionByZero(t *testing.T) {
	for _, op := range []Opcode{OP_DIV, OP_MOD} {
		t.Run(op.String(), func(t *testing.T) {
			assert := assert.New(t)

			cpu, _ := newTestCpu(t, byte(op), 0, 1)
			cpu.Register[0] = 10

			err := cpu.Tick()
			assert.ErrorIs(err, ErrDivisionByZero)
			assert.ErrorIs(err, ErrOpcodeAlu)

			var ei ErrInstruction
			if assert.True(errors.As(err, &ei)) {
				assert.Equal(0, ei.Pc)
				assert.Equal(op, ei.Code.Op)
			}

			assert.Equal(byte(10), cpu.Register[0])
			assert.Equal(0, cpu.Pc)
			assert.False(cpu.Running)
		})
	}
}

func TestCpu_Cmp(t *testing.T) {
	table := [](struct {
		a, b     byte
		expected Flags
	}){
		{7, 3, FL_GREATER},
		{3, 7, FL_LESS},
		{5, 5, FL_EQUAL},
		{0, 255, FL_LESS},
	}

	for _, entry := range table {
		t.Run(entry.expected.String(), func(t *testing.T) {
			assert := assert.New(t)

			cpu, _ := newTestCpu(t)
			cpu.Fl = FL_LESS | FL_GREATER | FL_EQUAL
			cpu.Register[0] = entry.a
			cpu.Register[1] = entry.b

			err := cpu.Execute(MakeCode(OP_CMP, 0, 1))
			assert.NoError(err)
			assert.Equal(entry.expected, cpu.Fl)
			assert.Equal(entry.a, cpu.Register[0])
			assert.Equal(entry.b, cpu.Register[1])
			assert.Equal(3, cpu.Pc)
		})
	}
}

func TestCpu_Jump(t *testing.T) {
	table := [](struct {
		op    Opcode
		fl    Flags
		taken bool
	}){
		{OP_JMP, 0, true},
		{OP_JEQ, FL_EQUAL, true},
		{OP_JEQ, FL_LESS, false},
		{OP_JNE, FL_GREATER, true},
		{OP_JNE, FL_EQUAL, false},
		{OP_JGT, FL_GREATER, true},
		{OP_JGT, FL_EQUAL, false},
		{OP_JLT, FL_LESS, true},
		{OP_JLT, FL_GREATER, false},
		{OP_JGE, FL_GREATER, true},
		{OP_JGE, FL_EQUAL, true},
		{OP_JGE, FL_LESS, false},
		{OP_JLE, FL_LESS, true},
		{OP_JLE, FL_EQUAL, true},
		{OP_JLE, FL_GREATER, false},
	}

	for _, entry := range table {
		t.Run(entry.op.String()+"_"+entry.fl.String(), func(t *testing.T) {
			assert := assert.New(t)

			cpu, _ := newTestCpu(t)
			cpu.Pc = 0x20
			cpu.Fl = entry.fl
			cpu.Register[4] = 0x80

			err := cpu.Execute(MakeCode(entry.op, 4))
			assert.NoError(err)
			if entry.taken {
				assert.Equal(0x80, cpu.Pc)
			} else {
				assert.Equal(0x22, cpu.Pc)
			}
			assert.Equal(entry.fl, cpu.Fl)
		})
	}
}

func TestCpu_JeqNotTaken(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		byte(OP_LDI), 0, 7,
		byte(OP_LDI), 1, 3,
		byte(OP_CMP), 0, 1,
		byte(OP_JEQ), 2,
		byte(OP_HLT),
	)

	for range 3 {
		assert.NoError(cpu.Tick())
	}
	assert.Equal(FL_GREATER, cpu.Fl)
	assert.Equal(9, cpu.Pc)

	assert.NoError(cpu.Tick())
	assert.Equal(11, cpu.Pc)
}

func TestCpu_CallRet(t *testing.T) {
	assert := assert.New(t)

	// The subroutine at 10 loads R0 and returns to the PRN at 5.
	cpu, output := newTestCpu(t,
		byte(OP_LDI), 1, 10,
		byte(OP_CALL), 1,
		byte(OP_PRN), 0,
		byte(OP_HLT),
		byte(OP_NOP),
		byte(OP_NOP),
		byte(OP_LDI), 0, 99,
		byte(OP_RET),
	)

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())
	assert.Equal(10, cpu.Pc)
	assert.Equal(byte(STACK_TOP-1), cpu.Register[REG_SP])
	assert.Equal(byte(5), cpu.Ram[STACK_TOP-1])

	err := cpu.Run()
	assert.NoError(err)
	assert.Equal("99\n", output.String())
	assert.Equal(byte(STACK_TOP), cpu.Register[REG_SP])
	assert.Equal(8, cpu.Pc)
}

func TestCpu_Call_StackPointer(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, byte(OP_CALL), REG_SP)

	// The target is read after the return address is pushed.
	err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(STACK_TOP-1, cpu.Pc)
}

func TestCpu_PushPop(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		byte(OP_LDI), 0, 1,
		byte(OP_LDI), 1, 2,
		byte(OP_PUSH), 0,
		byte(OP_PUSH), 1,
		byte(OP_POP), 0,
		byte(OP_POP), 1,
		byte(OP_PRN), 0,
		byte(OP_PRN), 1,
		byte(OP_HLT),
	)

	err := cpu.Run()
	assert.NoError(err)
	assert.Equal("2\n1\n", output.String())
	assert.Equal(byte(STACK_TOP), cpu.Register[REG_SP])
}

func TestCpu_LdSt(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t,
		byte(OP_LDI), 0, 0x80,
		byte(OP_LDI), 1, 42,
		byte(OP_ST), 0, 1,
		byte(OP_LD), 2, 0,
		byte(OP_HLT),
	)

	err := cpu.Run()
	assert.NoError(err)
	assert.Equal(byte(42), cpu.Ram[0x80])
	assert.Equal(byte(42), cpu.RamRead(0x80))
	assert.Equal(byte(42), cpu.Register[2])
}

func TestCpu_Pra(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		byte(OP_LDI), 0, 'A',
		byte(OP_PRA), 0,
		byte(OP_LDI), 0, '\n',
		byte(OP_PRA), 0,
		byte(OP_HLT),
	)

	err := cpu.Run()
	assert.NoError(err)
	assert.Equal("A\n", output.String())
}

func TestCpu_OutputMissing(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, byte(OP_PRN), 0)
	cpu.Output = nil

	err := cpu.Tick()
	assert.ErrorIs(err, ErrOutputMissing)
	assert.Equal(0, cpu.Pc)

	// A tape without a writer reports the same condition.
	cpu, _ = newTestCpu(t, byte(OP_PRA), 0)
	cpu.Output = &io.Tape{}

	err = cpu.Tick()
	assert.ErrorIs(err, ErrOutputMissing)
	assert.ErrorIs(err, io.ErrOutputMissing)
	assert.Equal(0, cpu.Pc)
}

func TestCpu_UnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t,
		byte(OP_LDI), 0, 5,
		0b10101111, 0, 1,
		byte(OP_PRN), 0,
	)

	err := cpu.Run()
	assert.ErrorIs(err, ErrOpcode{})
	assert.Contains(err.Error(), "unknown instruction 0b10101111")
	assert.Equal(3, cpu.Pc)
	assert.Equal(1, cpu.Ticks)
	assert.False(cpu.Running)
	assert.Equal(byte(5), cpu.Register[0])
	assert.Empty(output.String())
}

func TestCpu_RegisterInvalid(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, byte(OP_LDI), 9, 1)

	err := cpu.Tick()
	assert.ErrorIs(err, ErrRegisterInvalid(9))
	assert.ErrorIs(err, ErrBounds)
	assert.ErrorIs(err, ErrOpcodeArg1)
	assert.Equal(0, cpu.Pc)

	cpu, _ = newTestCpu(t, byte(OP_ADD), 0, 8)

	err = cpu.Tick()
	assert.ErrorIs(err, ErrRegisterInvalid(8))
	assert.ErrorIs(err, ErrOpcodeArg2)
}

func TestCpu_OperandPastRam(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)
	cpu.Pc = RAM_SIZE - 2
	cpu.Ram[RAM_SIZE-2] = byte(OP_LDI)

	err := cpu.Tick()
	assert.ErrorIs(err, ErrAddressRange(RAM_SIZE))
	assert.ErrorIs(err, ErrBounds)
	assert.False(cpu.Running)

	// Unneeded operands past the end of RAM read as zero.
	cpu, _ = newTestCpu(t)
	cpu.Pc = RAM_SIZE - 1
	cpu.Ram[RAM_SIZE-1] = byte(OP_NOP)

	code, err := cpu.FetchCode()
	assert.NoError(err)
	assert.Equal(MakeCode(OP_NOP), code)

	err = cpu.Tick()
	assert.NoError(err)
	assert.Equal(RAM_SIZE, cpu.Pc)

	err = cpu.Tick()
	assert.ErrorIs(err, ErrAddressRange(RAM_SIZE))
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, byte(OP_LDI), 0, 8)
	cpu.Register[1] = 0x2a

	text := cpu.String()
	assert.Contains(text, "   pc: 00\n")
	assert.Contains(text, "   fl: ---\n")
	assert.Contains(text, "   r1: 2A (42)\n")
	assert.Contains(text, "   r7: F4 (244)\n")
	assert.Contains(text, "stack: --\n")

	assert.NoError(cpu.Push(0x33))
	assert.Contains(cpu.String(), "stack: 33\n")

	assert.Equal("TRACE: 00 | --- | 82 00 08 | 00 2A 00 00 00 00 00 F3", cpu.Trace())
}

func TestCpu_Verbose(t *testing.T) {
	assert := assert.New(t)

	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	defer log.SetOutput(os.Stderr)

	cpu, _ := newTestCpu(t, byte(OP_NOP), byte(OP_HLT))
	cpu.Verbose = true

	err := cpu.Run()
	assert.NoError(err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(3, len(lines))
	assert.Contains(lines[0], "TRACE: 00")
	assert.Contains(lines[0], "NOP")
	assert.Contains(lines[1], "TRACE: 01")
	assert.Contains(lines[2], "cpu: halt")
}
