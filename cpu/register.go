// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
)

const (
	REGISTER_COUNT = 16 // Number of V registers.
)

// Register is an index into the V register bank. Valid values are 0x0-0xf.
type Register uint8

const (
	V0 = Register(0x0)
	V1 = Register(0x1)
	V2 = Register(0x2)
	V3 = Register(0x3)
	V4 = Register(0x4)
	V5 = Register(0x5)
	V6 = Register(0x6)
	V7 = Register(0x7)
	V8 = Register(0x8)
	V9 = Register(0x9)
	VA = Register(0xa)
	VB = Register(0xb)
	VC = Register(0xc)
	VD = Register(0xd)
	VE = Register(0xe)
	VF = Register(0xf) // Carry, borrow, shift-out and collision flag.
)

// RegisterOf validates an integer register index.
func RegisterOf(index int) (reg Register, err error) {
	if index < 0 || index >= REGISTER_COUNT {
		err = ErrIndexOutOfRange
		return
	}

	reg = Register(index)
	return
}

// String returns the assembly name of the register.
func (reg Register) String() string {
	return fmt.Sprintf("v%x", uint8(reg))
}
