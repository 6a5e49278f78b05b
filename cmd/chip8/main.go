// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/host"
	"github.com/ezrec/chip8/translate"
)

// predefines collects -D NAME=VALUE assembler equates.
type predefines map[string]string

func (pre predefines) set(text string) (err error) {
	name, value, ok := strings.Cut(text, "=")
	if !ok || len(name) == 0 {
		err = fmt.Errorf("expected NAME=VALUE, got '%v'", text)
		return
	}
	pre[name] = value
	return
}

// assemble reads and assembles a source file.
func assemble(path string, pre predefines, verbose bool) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	for name, value := range pre {
		asm.Predefine(name, value)
	}

	prog, err = asm.Parse(inf)

	return
}

// isSource is true if the path names an assembler source file.
func isSource(path string) bool {
	return slices.Contains(emulator.SourceExtensions, strings.ToLower(filepath.Ext(path)))
}

// listing prints the disassembly of the loaded image, with source line
// numbers when the image was assembled.
func listing(emu *emulator.Emulator) {
	for addr, code := range cpu.Disassemble(emu.Rom(), cpu.PROGRAM_START) {
		line := fmt.Sprintf("%03x: %04x  %v", addr, uint16(code), code)
		if dbg := emu.Program.Debug(addr); dbg.Opcode != nil {
			line += fmt.Sprintf("\t; line %v", dbg.LineNo)
		}
		translate.To(os.Stdout, "%v\n", line)
	}
}

func main() {
	var compile string
	var output string
	var disassemble bool
	var config string
	var terminal bool
	var verbose bool

	pre := predefines{}

	flag.StringVar(&compile, "c", "", "assembler source file to compile")
	flag.StringVar(&output, "o", "", "ROM image to write, do not execute")
	flag.BoolVar(&disassemble, "d", false, "Disassemble the ROM image, do not execute")
	flag.StringVar(&config, "config", "", "TOML configuration file")
	flag.BoolVar(&terminal, "t", false, "Run on the text terminal")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Func("D", "Predefine an assembler equate, as NAME=VALUE", pre.set)

	flag.Parse()

	if flag.NArg() > 1 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}

	cfg := emulator.DefaultConfig()
	if len(config) != 0 {
		var err error
		cfg, err = emulator.LoadConfig(os.DirFS(filepath.Dir(config)), filepath.Base(config))
		if err != nil {
			log.Fatalf("%v: %v", config, err)
		}
	}

	emu := emulator.NewEmulator(cfg)
	emu.Verbose = verbose

	switch {
	case len(compile) != 0:
		if flag.NArg() != 0 {
			log.Fatalf("%v: -c does not take a ROM argument", os.Args[0])
		}
		prog, err := assemble(compile, pre, verbose)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		err = emu.LoadProgram(prog)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case flag.NArg() == 1:
		rom := flag.Arg(0)
		var err error
		if isSource(rom) {
			var prog *cpu.Program
			prog, err = assemble(rom, pre, verbose)
			if err == nil {
				err = emu.LoadProgram(prog)
			}
		} else {
			err = emu.LoadFile(os.DirFS(filepath.Dir(rom)), filepath.Base(rom))
		}
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
	default:
		log.Fatalf("%v: No ROM image or source file given", os.Args[0])
	}

	if len(output) != 0 {
		err := os.WriteFile(output, emu.Rom(), 0o644)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	if disassemble {
		listing(emu)
	}

	if len(output) != 0 || disassemble {
		return
	}

	var sounder host.Sounder
	beeper, err := host.NewBeeper(cfg)
	if err != nil {
		log.Printf("%v: audio: %v", os.Args[0], err)
	} else {
		defer beeper.Close()
		sounder = beeper
	}

	if terminal {
		tty, err := host.NewTerminal(emu)
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
		tty.Sounder = sounder
		err = tty.Run()
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
		return
	}

	win, err := host.NewWindow(emu, sounder)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
	err = win.Run()
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}
