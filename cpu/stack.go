package cpu

// Push decrements the stack pointer, then stores value at the new top of
// the stack.
func (cpu *Cpu) Push(value byte) (err error) {
	sp := &cpu.Register[REG_SP]
	if *sp == 0 {
		err = ErrStackFull
		return
	}

	*sp--
	cpu.Ram[*sp] = value

	return
}

// Pop reads the top of the stack, then increments the stack pointer.
func (cpu *Cpu) Pop() (value byte, err error) {
	sp := &cpu.Register[REG_SP]
	if *sp == RAM_SIZE-1 {
		err = ErrStackEmpty
		return
	}

	value = cpu.Ram[*sp]
	*sp++

	return
}

// Peek returns the top of the stack without moving the stack pointer.
func (cpu *Cpu) Peek() (value byte, ok bool) {
	sp := cpu.Register[REG_SP]
	if sp >= STACK_TOP {
		return
	}

	return cpu.Ram[sp], true
}
