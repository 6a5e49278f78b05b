// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
)

// Family is the decoded operation of an instruction word.
type Family int

//go:generate go tool stringer -linecomment -type=Family
const (
	OP_UNKNOWN   = Family(0)  // unknown
	OP_NOP       = Family(1)  // nop
	OP_CLS       = Family(2)  // cls
	OP_RET       = Family(3)  // ret
	OP_JP        = Family(4)  // jp
	OP_CALL      = Family(5)  // call
	OP_SE_BYTE   = Family(6)  // se
	OP_SNE_BYTE  = Family(7)  // sne
	OP_SE_REG    = Family(8)  // se
	OP_LD_BYTE   = Family(9)  // ld
	OP_ADD_BYTE  = Family(10) // add
	OP_LD_REG    = Family(11) // ld
	OP_OR        = Family(12) // or
	OP_AND       = Family(13) // and
	OP_XOR       = Family(14) // xor
	OP_ADD_REG   = Family(15) // add
	OP_SUB       = Family(16) // sub
	OP_SHR       = Family(17) // shr
	OP_SUBN      = Family(18) // subn
	OP_SHL       = Family(19) // shl
	OP_SNE_REG   = Family(20) // sne
	OP_LD_I      = Family(21) // ld
	OP_JP_V0     = Family(22) // jp
	OP_RND       = Family(23) // rnd
	OP_DRW       = Family(24) // drw
	OP_SKP       = Family(25) // skp
	OP_SKNP      = Family(26) // sknp
	OP_LD_VX_DT  = Family(27) // ld
	OP_LD_VX_K   = Family(28) // ld
	OP_LD_DT_VX  = Family(29) // ld
	OP_LD_ST_VX  = Family(30) // ld
	OP_ADD_I_VX  = Family(31) // add
	OP_LD_F_VX   = Family(32) // ld
	OP_LD_B_VX   = Family(33) // ld
	OP_LD_MEM_VX = Family(34) // ld
	OP_LD_VX_MEM = Family(35) // ld
)

// Code is a single 16-bit instruction word, most significant byte first in memory.
type Code uint16

// MakeCode assembles an instruction word from its four nibbles.
func MakeCode(d1, d2, d3, d4 uint8) Code {
	return Code(uint16(d1&0xf)<<12 | uint16(d2&0xf)<<8 | uint16(d3&0xf)<<4 | uint16(d4&0xf))
}

// Nibbles splits the word into its four digits, most significant first.
func (code Code) Nibbles() (d1, d2, d3, d4 uint8) {
	word := uint16(code)
	d1 = uint8((word >> 12) & 0xf)
	d2 = uint8((word >> 8) & 0xf)
	d3 = uint8((word >> 4) & 0xf)
	d4 = uint8((word >> 0) & 0xf)
	return
}

// X returns the register selected by the second digit.
func (code Code) X() Register {
	return Register((uint16(code) >> 8) & 0xf)
}

// Y returns the register selected by the third digit.
func (code Code) Y() Register {
	return Register((uint16(code) >> 4) & 0xf)
}

// N returns the low digit.
func (code Code) N() uint8 {
	return uint8(uint16(code) & 0xf)
}

// KK returns the low byte.
func (code Code) KK() byte {
	return byte(uint16(code) & 0xff)
}

// NNN returns the low 12 bits.
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// Family decodes the operation selected by the instruction word.
func (code Code) Family() Family {
	d1, _, d3, d4 := code.Nibbles()

	switch d1 {
	case 0x0:
		switch code {
		case 0x0000:
			return OP_NOP
		case 0x00E0:
			return OP_CLS
		case 0x00EE:
			return OP_RET
		}
	case 0x1:
		return OP_JP
	case 0x2:
		return OP_CALL
	case 0x3:
		return OP_SE_BYTE
	case 0x4:
		return OP_SNE_BYTE
	case 0x5:
		if d4 == 0x0 {
			return OP_SE_REG
		}
	case 0x6:
		return OP_LD_BYTE
	case 0x7:
		return OP_ADD_BYTE
	case 0x8:
		switch d4 {
		case 0x0:
			return OP_LD_REG
		case 0x1:
			return OP_OR
		case 0x2:
			return OP_AND
		case 0x3:
			return OP_XOR
		case 0x4:
			return OP_ADD_REG
		case 0x5:
			return OP_SUB
		case 0x6:
			return OP_SHR
		case 0x7:
			return OP_SUBN
		case 0xE:
			return OP_SHL
		}
	case 0x9:
		if d4 == 0x0 {
			return OP_SNE_REG
		}
	case 0xA:
		return OP_LD_I
	case 0xB:
		return OP_JP_V0
	case 0xC:
		return OP_RND
	case 0xD:
		return OP_DRW
	case 0xE:
		switch code.KK() {
		case 0x9E:
			return OP_SKP
		case 0xA1:
			return OP_SKNP
		}
	case 0xF:
		switch (d3 << 4) | d4 {
		case 0x07:
			return OP_LD_VX_DT
		case 0x0A:
			return OP_LD_VX_K
		case 0x15:
			return OP_LD_DT_VX
		case 0x18:
			return OP_LD_ST_VX
		case 0x1E:
			return OP_ADD_I_VX
		case 0x29:
			return OP_LD_F_VX
		case 0x33:
			return OP_LD_B_VX
		case 0x55:
			return OP_LD_MEM_VX
		case 0x65:
			return OP_LD_VX_MEM
		}
	}

	return OP_UNKNOWN
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	family := code.Family()
	x := code.X()
	y := code.Y()

	switch family {
	case OP_NOP, OP_CLS, OP_RET:
		out = family.String()
	case OP_JP, OP_CALL:
		out = fmt.Sprintf("%v 0x%03x", family, code.NNN())
	case OP_JP_V0:
		out = fmt.Sprintf("%v %v, 0x%03x", family, V0, code.NNN())
	case OP_LD_I:
		out = fmt.Sprintf("%v i, 0x%03x", family, code.NNN())
	case OP_SE_BYTE, OP_SNE_BYTE, OP_LD_BYTE, OP_ADD_BYTE, OP_RND:
		out = fmt.Sprintf("%v %v, 0x%02x", family, x, code.KK())
	case OP_SE_REG, OP_SNE_REG, OP_LD_REG, OP_OR, OP_AND, OP_XOR, OP_ADD_REG, OP_SUB, OP_SUBN:
		out = fmt.Sprintf("%v %v, %v", family, x, y)
	case OP_SHR, OP_SHL:
		// vy is ignored by the shift, but keep it for an exact round trip.
		if y == V0 {
			out = fmt.Sprintf("%v %v", family, x)
		} else {
			out = fmt.Sprintf("%v %v, %v", family, x, y)
		}
	case OP_DRW:
		out = fmt.Sprintf("%v %v, %v, %d", family, x, y, code.N())
	case OP_SKP, OP_SKNP:
		out = fmt.Sprintf("%v %v", family, x)
	case OP_LD_VX_DT:
		out = fmt.Sprintf("%v %v, dt", family, x)
	case OP_LD_VX_K:
		out = fmt.Sprintf("%v %v, k", family, x)
	case OP_LD_DT_VX:
		out = fmt.Sprintf("%v dt, %v", family, x)
	case OP_LD_ST_VX:
		out = fmt.Sprintf("%v st, %v", family, x)
	case OP_ADD_I_VX:
		out = fmt.Sprintf("%v i, %v", family, x)
	case OP_LD_F_VX:
		out = fmt.Sprintf("%v f, %v", family, x)
	case OP_LD_B_VX:
		out = fmt.Sprintf("%v b, %v", family, x)
	case OP_LD_MEM_VX:
		out = fmt.Sprintf("%v [i], %v", family, x)
	case OP_LD_VX_MEM:
		out = fmt.Sprintf("%v %v, [i]", family, x)
	default:
		if uint16(code)&0xf000 == 0 {
			out = fmt.Sprintf("sys 0x%03x", code.NNN())
		} else {
			out = fmt.Sprintf(".word 0x%04x", uint16(code))
		}
	}

	return
}
