// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"iter"
)

// Opcode is a single assembled source line.
type Opcode struct {
	LineNo    int      // Source line number.
	Address   uint16   // Load address of the first byte.
	Words     []string // Source words, after equate expansion.
	Bytes     []byte   // Assembled image.
	LinkLabel string   // Label to link into the low 12 bits of the first word.
}

// Program is an assembled program image.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int // Byte offset of the address within the opcode.
}

// Debug finds the source line that assembled the byte at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Address && int(addr) < int(op.Address)+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr - op.Address),
			}
			break
		}
	}

	return
}

// Binary returns the ROM image, to be loaded at PROGRAM_START.
func (prog *Program) Binary() (rom []byte) {
	for _, op := range prog.Opcodes {
		rom = append(rom, op.Bytes...)
	}

	return
}

// Disassemble walks a ROM image two bytes at a time, yielding the
// load address and instruction word. A trailing odd byte is yielded as the
// high byte of a word.
func Disassemble(rom []byte, base uint16) iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for offset := 0; offset < len(rom); offset += OPCODE_SIZE {
			word := uint16(rom[offset]) << 8
			if offset+1 < len(rom) {
				word |= uint16(rom[offset+1])
			}
			if !yield(base+uint16(offset), Code(word)) {
				return
			}
		}
	}
}
