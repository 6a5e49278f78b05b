// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package cpu implements the virtual processor and assembler for the CHIP-8
// system.
//
// The CPU consists of a program counter (PC), sixteen 8-bit registers (v0-vf)
// where vf doubles as the carry, borrow and collision flag, a 16-bit index
// register (I), a 16 entry return stack, 4K of memory, a 64x32 monochrome
// display, a 16 key hex keypad, and the delay and sound timers.
//
// The host drives execution: call Tick() some number of times per frame,
// TickTimers() once per frame, and read Display() to present the frame. The
// CPU never blocks; the key wait instruction re-executes itself until a key
// is pressed.
//
// The assembler accepts the customary CHIP-8 mnemonics, with labels, macros,
// equates, and compile-time expression evaluation.
package cpu
