package cpu

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// Line represents a line of source with its address and generated bytes.
type Line struct {
	LineNo    int
	Ip        int
	Words     []string
	Bytes     []byte
	LinkLabel string
}

// Program is a listing of source lines, ordered by address.
type Program struct {
	Lines []Line
}

type Debug struct {
	*Line
	Index int
}

// Debug returns the listing line covering an address, and the offset of
// the address within the line.
func (prog *Program) Debug(ip int) (dbg Debug) {
	for n, line := range prog.Lines {
		if ip >= line.Ip && ip < line.Ip+len(line.Bytes) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: ip - line.Ip,
			}
			break
		}
	}

	return
}

// Size returns the number of bytes needed to hold the program.
func (prog *Program) Size() (size int) {
	for _, line := range prog.Lines {
		size = max(size, line.Ip+len(line.Bytes))
	}

	return
}

// Binary returns the memory image of the program.
func (prog *Program) Binary() (bins []byte) {
	bins = make([]byte, prog.Size())
	for ip, data := range prog.Bytes() {
		bins[ip] = data
	}

	return
}

// Bytes iterates over every byte of the program, with its address.
func (prog *Program) Bytes() iter.Seq2[int, byte] {
	return func(yield func(ip int, data byte) bool) {
		for _, line := range prog.Lines {
			for n, data := range line.Bytes {
				if !yield(line.Ip+n, data) {
					return
				}
			}
		}
	}
}

// WriteImage writes the program in the .ls8 image format: one binary
// literal per line, annotated with the source that produced it.
func (prog *Program) WriteImage(w io.Writer) (err error) {
	bins := prog.Binary()

	for ip := 0; ip < len(bins); {
		dbg := prog.Debug(ip)

		var comment string
		count := 1
		if dbg.Line != nil && dbg.Index == 0 {
			count = len(dbg.Bytes)
			comment = strings.Join(dbg.Words, " ")
			op := Opcode(dbg.Bytes[0])
			if op.Valid() && len(dbg.Bytes) == 1+op.Operands() {
				comment = MakeCode(op, dbg.Bytes[1:]...).String()
				if len(dbg.LinkLabel) != 0 {
					comment = fmt.Sprintf("%v (%v)", comment, dbg.LinkLabel)
				}
			}
		}

		for n := range count {
			text := fmt.Sprintf("%08b", bins[ip+n])
			if n == 0 && len(comment) != 0 {
				text = fmt.Sprintf("%v # %02X: %v", text, ip, comment)
			}
			_, err = fmt.Fprintln(w, text)
			if err != nil {
				return
			}
		}

		ip += count
	}

	return
}
