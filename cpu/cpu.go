// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"log"
	"math/rand/v2"
)

// Memory layout constants.
const (
	MEMORY_SIZE   = 0x1000 // 4K of memory.
	PROGRAM_START = 0x200  // Load address of the program image.
	ROM_LIMIT     = MEMORY_SIZE - PROGRAM_START
	OPCODE_SIZE   = 2  // Bytes per instruction.
	KEY_COUNT     = 16 // Keys on the hex keypad.
)

// Cpu is the simulation context for the CHIP-8 processor.
type Cpu struct {
	Verbose bool        // Set to enable verbose logging.
	Random  func() byte // Source for the rnd instruction.

	Pc       uint16               // Address of the next instruction.
	I        uint16               // Index register.
	Register [REGISTER_COUNT]byte // Register bank, v0-vf.
	Stack    Stack                // Return address stack.
	Memory   [MEMORY_SIZE]byte    // Font, program, and data.
	Delay    byte                 // Delay timer.
	Sound    byte                 // Sound timer.
	Keypad   [KEY_COUNT]bool      // Key pressed states.
	Ticks    int                  // Instructions executed since reset.

	display Display // Framebuffer.
}

// NewCpu creates a new CPU with the font loaded and no program.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

func randomByte() byte {
	return byte(rand.UintN(256))
}

// Reset the CPU state.
// - Clears the registers, stack, memory, display, keypad and timers.
// - Installs the font glyphs at FONT_BASE.
// - Sets the PC to PROGRAM_START.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	if cpu.Random == nil {
		cpu.Random = randomByte
	}

	cpu.Pc = PROGRAM_START
	cpu.I = 0
	clear(cpu.Register[:])
	cpu.Stack.Reset()
	clear(cpu.Memory[:])
	copy(cpu.Memory[FONT_BASE:], FONTSET[:])
	cpu.Delay = 0
	cpu.Sound = 0
	clear(cpu.Keypad[:])
	cpu.Ticks = 0
	cpu.display.Clear()
}

// Load copies a program image into memory at PROGRAM_START.
// Memory is unchanged if the image does not fit.
func (cpu *Cpu) Load(rom []byte) (err error) {
	if len(rom) > ROM_LIMIT {
		err = ErrRomTooLarge
		return
	}

	copy(cpu.Memory[PROGRAM_START:], rom)

	if cpu.Verbose {
		log.Printf("cpu: loaded %v bytes", len(rom))
	}

	return
}

// GetRegister returns the value of register v<index>.
func (cpu *Cpu) GetRegister(index int) (value byte, err error) {
	reg, err := RegisterOf(index)
	if err != nil {
		return
	}

	value = cpu.Register[reg]
	return
}

// SetRegister sets the value of register v<index>.
func (cpu *Cpu) SetRegister(index int, value byte) (err error) {
	reg, err := RegisterOf(index)
	if err != nil {
		return
	}

	cpu.Register[reg] = value
	return
}

// SetKey updates the pressed state of a keypad key.
func (cpu *Cpu) SetKey(index int, pressed bool) (err error) {
	if index < 0 || index >= KEY_COUNT {
		err = ErrKeyOutOfRange
		return
	}

	cpu.Keypad[index] = pressed
	return
}

// Display returns a copy of the framebuffer.
func (cpu *Cpu) Display() Display {
	return cpu.display
}

// TickTimers counts the delay and sound timers down towards zero.
func (cpu *Cpu) TickTimers() {
	if cpu.Delay > 0 {
		cpu.Delay--
	}

	if cpu.Sound > 0 {
		cpu.Sound--
	}
}

// Sounding is true while the sound timer is running.
func (cpu *Cpu) Sounding() bool {
	return cpu.Sound > 0
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{"pc", "i"}
	for n := range REGISTER_COUNT {
		regs = append(regs, Register(n).String())
	}
	regs = append(regs, "stack", "dt", "st", "keys")

	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%03X", cpu.Pc)
			if int(cpu.Pc)+1 < MEMORY_SIZE {
				code := Code(uint16(cpu.Memory[cpu.Pc])<<8 | uint16(cpu.Memory[cpu.Pc+1]))
				strval += fmt.Sprintf(" %04X %v", uint16(code), code)
			}
		case "i":
			strval = fmt.Sprintf("%03X", cpu.I)
		case "stack":
			val, ok := cpu.Stack.Peek()
			if ok {
				strval = fmt.Sprintf("%03X (%d)", val, cpu.Stack.Depth())
			} else {
				strval = "---"
			}
		case "dt":
			strval = fmt.Sprintf("%02X", cpu.Delay)
		case "st":
			strval = fmt.Sprintf("%02X", cpu.Sound)
		case "keys":
			for key, pressed := range cpu.Keypad {
				if pressed {
					strval += fmt.Sprintf("%X", key)
				} else {
					strval += "-"
				}
			}
		default:
			index := reg[1] - '0'
			if reg[1] >= 'a' {
				index = reg[1] - 'a' + 10
			}
			strval = fmt.Sprintf("%02X", cpu.Register[index])
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}
