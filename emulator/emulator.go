// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"io"
	"io/fs"
	"log"
	"path"
	"strings"

	"github.com/ezrec/chip8/cpu"
)

// SourceExtensions lists the file extensions that LoadFile assembles
// rather than loading as a ROM image.
var SourceExtensions = []string{".c8s", ".s", ".asm"}

// Emulator state. CPU + program image + frontend configuration.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Config   Config       // Frontend settings.
	Program  *cpu.Program // Source listing, if the ROM was assembled.

	rom    []byte
	frames int
}

// NewEmulator creates a new emulator.
func NewEmulator(cfg Config) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Config:  cfg,
		Program: &cpu.Program{},
	}

	return
}

// LoadRom reads a ROM image and resets the emulator to run it.
func (emu *Emulator) LoadRom(r io.Reader) (err error) {
	rom, err := io.ReadAll(io.LimitReader(r, cpu.ROM_LIMIT+1))
	if err != nil {
		return
	}

	if len(rom) > cpu.ROM_LIMIT {
		err = cpu.ErrRomTooLarge
		return
	}

	emu.rom = rom
	emu.Program = &cpu.Program{}

	err = emu.Reset()

	return
}

// LoadProgram loads an assembled program and resets the emulator to run it.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	rom := prog.Binary()
	if len(rom) > cpu.ROM_LIMIT {
		err = cpu.ErrRomTooLarge
		return
	}

	emu.rom = rom
	emu.Program = prog

	err = emu.Reset()

	return
}

// LoadFile loads a ROM image, or assembles a source file, from a filesystem.
func (emu *Emulator) LoadFile(fsys fs.FS, name string) (err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	ext := strings.ToLower(path.Ext(name))
	for _, source := range SourceExtensions {
		if ext != source {
			continue
		}

		asm := &cpu.Assembler{Verbose: emu.Verbose}
		var prog *cpu.Program
		prog, err = asm.Parse(inf)
		if err != nil {
			return
		}

		err = emu.LoadProgram(prog)
		return
	}

	err = emu.LoadRom(inf)

	return
}

// Reset the CPU, and reload the current ROM image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.frames = 0

	err = emu.Cpu.Load(emu.rom)

	return
}

// Rom returns the loaded ROM image.
func (emu *Emulator) Rom() []byte {
	return emu.rom
}

// Frames returns the number of frames run since the last reset.
func (emu *Emulator) Frames() int {
	return emu.frames
}

// LineNo returns the source line number for the instruction at the PC,
// or 0 if there is no listing.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()

	err = emu.Cpu.Tick()
	if err != nil {
		err = ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		return
	}

	return
}

// Frame runs one 60Hz frame: TicksPerFrame instructions, followed by a
// single count down of the timers. The frame stops at the first failing
// instruction.
func (emu *Emulator) Frame() (err error) {
	ticks := max(emu.Config.TicksPerFrame, 1)

	for range ticks {
		err = emu.Tick()
		if err != nil {
			if emu.Verbose {
				log.Printf("emulator: frame %d: %v", emu.frames, err)
			}
			return
		}
	}

	emu.Cpu.TickTimers()
	emu.frames++

	return
}

// Press sets the state of a keypad key.
func (emu *Emulator) Press(key int, pressed bool) (err error) {
	err = emu.Cpu.SetKey(key, pressed)
	return
}

// PressHost sets the state of the keypad key bound to a host key name.
// Unbound names are ignored.
func (emu *Emulator) PressHost(name string, pressed bool) (bound bool) {
	key, bound := emu.Config.KeyFor(name)
	if !bound {
		return
	}

	_ = emu.Cpu.SetKey(key, pressed)
	return
}

// KeyFor returns the keypad key bound to a host key name.
func (emu *Emulator) KeyFor(name string) (key int, ok bool) {
	return emu.Config.KeyFor(name)
}
