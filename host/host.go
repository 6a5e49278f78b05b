// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package host connects an emulator to the host machine's display,
// keyboard and audio.
package host

import (
	"errors"
	"image/color"
	"strings"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrHeadless = errors.New(f("no display or audio support in headless builds"))
)

const (
	SAMPLE_RATE = 44100 // Audio samples per second.
	FRAME_RATE  = 60    // Frames per second.
)

// Sounder is gated on and off while the sound timer runs.
type Sounder interface {
	Set(on bool)
}

// FillPixels renders the display into an RGBA pixel buffer of
// DISPLAY_WIDTH x DISPLAY_HEIGHT pixels.
func FillPixels(pixels []byte, display *cpu.Display, fg, bg color.RGBA) {
	for n := range cpu.DISPLAY_WIDTH * cpu.DISPLAY_HEIGHT {
		c := bg
		if display[n] {
			c = fg
		}
		pixels[n*4+0] = c.R
		pixels[n*4+1] = c.G
		pixels[n*4+2] = c.B
		pixels[n*4+3] = c.A
	}
}

// Dump returns the CPU state and the display as text.
func Dump(emu *emulator.Emulator) string {
	var text strings.Builder

	display := emu.Display()
	text.WriteString(emu.Cpu.String())
	text.WriteString(f("frame: %d\n", emu.Frames()))
	text.WriteString(display.String())

	return text.String()
}
