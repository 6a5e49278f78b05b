//go:build headless

// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package host

import (
	"github.com/ezrec/chip8/emulator"
)

type Beeper struct {
	Tone
}

func NewBeeper(cfg emulator.Config) (beeper *Beeper, err error) {
	err = ErrHeadless
	return
}

func (beeper *Beeper) Close() (err error) {
	return
}

type Window struct{}

func NewWindow(emu *emulator.Emulator, sounder Sounder) (win *Window, err error) {
	err = ErrHeadless
	return
}

func (win *Window) Run() (err error) {
	err = ErrHeadless
	return
}
