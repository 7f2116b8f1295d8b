// Package cpu implements the processor, program listing, image loader and
// assembler for the LS-8 8-bit computer.
//
// The CPU consists of 256 bytes of RAM shared by code and stack, eight 8-bit
// general-purpose registers (R0-R7, with R7 serving as the stack pointer), a
// program counter (PC), and a flags register recording the outcome of the
// last comparison. Instructions are one opcode byte followed by zero, one or
// two operand bytes; the opcode itself encodes its operand count, whether it
// is an ALU operation, and whether it sets the PC.
//
// The assembler accepts LS-8 assembly text, supporting labels, equates,
// macros, and compile-time expression evaluation.
package cpu
