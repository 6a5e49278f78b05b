// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package host

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

const (
	HOLD_FRAMES = 6 // Frames a key stays down after a keystroke.

	KEY_CTRL_C = 0x03
	KEY_ESCAPE = 0x1b
	KEY_BELL   = 0x07
)

// Terminal runs an emulator on a text terminal.
//
// Terminals report keystrokes, not key releases, so each keystroke holds
// its keypad key down for HoldFrames frames.
type Terminal struct {
	In         *os.File  // Keyboard input, placed in raw mode while running.
	Out        io.Writer // Display output.
	Sounder    Sounder   // Tone generator. If nil, the terminal bell is rung.
	HoldFrames int       // Frames a key stays down after a keystroke.

	emu    *emulator.Emulator
	fg, bg color.RGBA
	held   [cpu.KEY_COUNT]int
}

// NewTerminal prepares a terminal for the emulator on stdin and stdout.
func NewTerminal(emu *emulator.Emulator) (tty *Terminal, err error) {
	fg, bg, err := emu.Config.Colors()
	if err != nil {
		return
	}

	tty = &Terminal{
		In:         os.Stdin,
		Out:        os.Stdout,
		HoldFrames: HOLD_FRAMES,
		emu:        emu,
		fg:         fg,
		bg:         bg,
	}

	return
}

// KeyName returns the host key name for a keystroke byte.
func KeyName(b byte) (name string, ok bool) {
	switch {
	case b >= '0' && b <= '9':
		return "Digit" + string(rune(b)), true
	case b >= 'a' && b <= 'z':
		return strings.ToUpper(string(rune(b))), true
	case b >= 'A' && b <= 'Z':
		return string(rune(b)), true
	case b == ' ':
		return "Space", true
	case b == '\r' || b == '\n':
		return "Enter", true
	}

	return
}

// feed handles a keystroke, returning true if it asks to quit.
func (tty *Terminal) feed(b byte) (quit bool) {
	if b == KEY_CTRL_C || b == KEY_ESCAPE {
		quit = true
		return
	}

	name, ok := KeyName(b)
	if !ok {
		return
	}

	key, ok := tty.emu.KeyFor(name)
	if !ok {
		return
	}

	tty.held[key] = max(tty.HoldFrames, 1)
	_ = tty.emu.Press(key, true)

	return
}

// release counts down held keys, releasing those that expire.
func (tty *Terminal) release() {
	for key, frames := range tty.held {
		if frames == 0 {
			continue
		}
		frames--
		tty.held[key] = frames
		if frames == 0 {
			_ = tty.emu.Press(key, false)
		}
	}
}

// Render draws the display with half-block characters, two pixel rows
// per text line, using truecolor escapes.
func Render(w io.Writer, display *cpu.Display, fg, bg color.RGBA) (err error) {
	out := bufio.NewWriter(w)

	pick := func(on bool) color.RGBA {
		if on {
			return fg
		}
		return bg
	}

	out.WriteString("\x1b[H")
	for y := 0; y < cpu.DISPLAY_HEIGHT; y += 2 {
		for x := range cpu.DISPLAY_WIDTH {
			top := pick(display.Pixel(x, y))
			bottom := pick(display.Pixel(x, y+1))
			fmt.Fprintf(out, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		out.WriteString("\x1b[0m\r\n")
	}

	err = out.Flush()

	return
}

// Run runs the emulator until a quit keystroke, a runtime error, or the
// end of input.
func (tty *Terminal) Run() (err error) {
	fd := int(tty.In.Fd())
	if term.IsTerminal(fd) {
		var state *term.State
		state, err = term.MakeRaw(fd)
		if err != nil {
			return
		}
		defer term.Restore(fd, state)
	}

	keys := make(chan byte, 16)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := tty.In.Read(buf)
			if n == 1 {
				keys <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()

	fmt.Fprint(tty.Out, "\x1b[2J\x1b[?25l")
	defer fmt.Fprint(tty.Out, "\x1b[0m\x1b[?25h\r\n")

	ticker := time.NewTicker(time.Second / FRAME_RATE)
	defer ticker.Stop()

	sounding := false
	defer func() {
		if tty.Sounder != nil {
			tty.Sounder.Set(false)
		}
	}()

	for {
		select {
		case b, ok := <-keys:
			if !ok || tty.feed(b) {
				return
			}
			continue
		case <-ticker.C:
		}

		err = tty.emu.Frame()
		if err != nil {
			if tty.emu.Verbose {
				log.Printf("terminal: %v", err)
			}
			return
		}
		tty.release()

		display := tty.emu.Display()
		err = Render(tty.Out, &display, tty.fg, tty.bg)
		if err != nil {
			return
		}

		on := tty.emu.Sounding()
		if tty.Sounder != nil {
			tty.Sounder.Set(on)
		} else if on && !sounding {
			fmt.Fprint(tty.Out, string(rune(KEY_BELL)))
		}
		sounding = on
	}
}
