// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrTicksPerFrame = errors.New(f("ticks_per_frame must be positive"))
	ErrScale         = errors.New(f("scale must be positive"))
	ErrVolume        = errors.New(f("volume must be between 0 and 1"))
	ErrBeep          = errors.New(f("beep_hz must be positive"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint16
	LineNo int // Source line, if the program was assembled.
	Err    error
}

func (err ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("line %d (pc 0x%03x) %v", err.LineNo, err.Pc, err.Err)
	}
	return f("pc 0x%03x %v", err.Pc, err.Err)
}

func (err ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrColor is returned for an unparseable colour.
type ErrColor string

func (err ErrColor) Error() string {
	return f("'%v' is not a #rrggbb colour", string(err))
}

// ErrKeymap is returned for an invalid keymap entry.
type ErrKeymap string

func (err ErrKeymap) Error() string {
	return f("keymap entry '%v' is not a hex key 0-f", string(err))
}

// ErrConfigKey is returned for an unrecognized configuration key.
type ErrConfigKey string

func (err ErrConfigKey) Error() string {
	return f("unknown configuration key '%v'", string(err))
}
