package io

import (
	"io"
	"strconv"
)

// Tape writes the printed values of the CPU to an io.Writer.
type Tape struct {
	Output io.Writer

	Lines   int // Numbers printed since the last rewind.
	Written int // Bytes written since the last rewind.
}

var _ Device = (*Tape)(nil)

// Rewind clears the counters. The output itself cannot be rewound.
func (tc *Tape) Rewind() {
	tc.Lines = 0
	tc.Written = 0
}

// PrintNumber writes the value in decimal, followed by a newline.
func (tc *Tape) PrintNumber(value byte) (err error) {
	line := strconv.AppendUint(nil, uint64(value), 10)
	line = append(line, '\n')

	err = tc.write(line)
	if err != nil {
		return
	}

	tc.Lines++

	return
}

// PrintChar writes the value as a raw byte.
func (tc *Tape) PrintChar(value byte) (err error) {
	return tc.write([]byte{value})
}

func (tc *Tape) write(data []byte) (err error) {
	if tc.Output == nil {
		err = ErrOutputMissing
		return
	}

	n, err := tc.Output.Write(data)
	tc.Written += n

	return
}
