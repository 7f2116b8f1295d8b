// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/elysiagabe/ls8/cpu"
	"github.com/elysiagabe/ls8/emulator"
)

// Exit statuses.
const (
	EXIT_USAGE    = 1
	EXIT_NOTFOUND = 2
	EXIT_PROGRAM  = 3
	EXIT_RUNTIME  = 4
)

func fatalf(status int, format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(status)
}

// openOrDie opens a file, exiting with EXIT_NOTFOUND if it is missing.
func openOrDie(path string) *os.File {
	inf, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		fatalf(EXIT_NOTFOUND, "%v: %v", path, err)
	}
	if err != nil {
		fatalf(EXIT_USAGE, "%v: %v", path, err)
	}

	return inf
}

func main() {
	var compile string
	var save bool
	var output string
	var ticks int
	var verbose bool

	log.SetFlags(0)
	log.SetPrefix("ls8: ")

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.BoolVar(&save, "s", false, "Save assembled image to output, do not execute")
	flag.StringVar(&output, "o", "-", "Output for PRN and PRA (or the image, with -s)")
	flag.IntVar(&ticks, "t", 0, "Tick limit (0 for none)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %v [flags] [program.ls8]\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.MaxTicks = ticks

	var prog *cpu.Program
	switch {
	case len(compile) != 0 && flag.NArg() == 0:
		inf := openOrDie(compile)
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}

		var err error
		prog, err = asm.Parse(inf)
		if err != nil {
			fatalf(EXIT_PROGRAM, "%v: %v", compile, err)
		}
	case len(compile) == 0 && flag.NArg() == 1:
		image := flag.Arg(0)
		inf := openOrDie(image)
		defer inf.Close()

		var err error
		prog, err = cpu.LoadImage(inf)
		if err != nil {
			fatalf(EXIT_PROGRAM, "%v: %v", image, err)
		}
	default:
		flag.Usage()
		os.Exit(EXIT_USAGE)
	}

	ouf := os.Stdout
	if output != "-" {
		var err error
		ouf, err = os.Create(output)
		if err != nil {
			fatalf(EXIT_USAGE, "%v: %v", output, err)
		}
		defer ouf.Close()
	}

	if save {
		err := prog.WriteImage(ouf)
		if err != nil {
			fatalf(EXIT_USAGE, "%v: %v", output, err)
		}
		return
	}

	emu.Program = prog
	emu.Tape.Output = ouf

	err := emu.Reset()
	if err != nil {
		fatalf(EXIT_PROGRAM, "%v", err)
	}

	err = emu.Run()
	if err != nil {
		if term.IsTerminal(int(os.Stderr.Fd())) {
			fmt.Fprint(os.Stderr, emu.Cpu.String())
		}
		fatalf(EXIT_RUNTIME, "%v", err)
	}
}
