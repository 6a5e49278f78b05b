//go:build !headless

// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package host

import (
	"errors"
	"image/color"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

// binding maps a host key to a keypad key.
type binding struct {
	key    ebiten.Key
	keypad int
}

// Window runs an emulator in a host window.
// - Escape quits.
// - P pauses and resumes.
// - F10 resets the emulator.
// - F9 copies the CPU state and display to the clipboard.
type Window struct {
	Title string

	emu      *emulator.Emulator
	sounder  Sounder
	fg, bg   color.RGBA
	scale    int
	bindings []binding

	pixels []byte
	image  *ebiten.Image
	paused bool
	err    error // Runtime error that stopped the emulator.
	status string

	clipboardOnce sync.Once
	clipboardOK   bool
}

// NewWindow prepares a window for the emulator. The sounder may be nil.
func NewWindow(emu *emulator.Emulator, sounder Sounder) (win *Window, err error) {
	fg, bg, err := emu.Config.Colors()
	if err != nil {
		return
	}

	win = &Window{
		Title:   "chip8",
		emu:     emu,
		sounder: sounder,
		fg:      fg,
		bg:      bg,
		scale:   max(emu.Config.Scale, 1),
		pixels:  make([]byte, cpu.DISPLAY_WIDTH*cpu.DISPLAY_HEIGHT*4),
	}

	for keypad, names := range emu.Config.Bindings() {
		for _, name := range names {
			var key ebiten.Key
			if key.UnmarshalText([]byte(name)) != nil {
				log.Printf("window: unknown key name '%v'", name)
				continue
			}
			win.bindings = append(win.bindings, binding{key: key, keypad: keypad})
		}
	}

	return
}

// Run opens the window, returning when it is closed. A runtime error
// that stopped the emulator is returned.
func (win *Window) Run() (err error) {
	ebiten.SetWindowSize(cpu.DISPLAY_WIDTH*win.scale, cpu.DISPLAY_HEIGHT*win.scale)
	ebiten.SetWindowTitle(win.Title)
	ebiten.SetTPS(FRAME_RATE)

	err = ebiten.RunGame(win)
	if win.sounder != nil {
		win.sounder.Set(false)
	}
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if err == nil {
		err = win.err
	}

	return
}

// copyState puts the CPU state and display on the clipboard.
func (win *Window) copyState() {
	win.clipboardOnce.Do(func() {
		win.clipboardOK = clipboard.Init() == nil
	})
	if !win.clipboardOK {
		win.status = f("clipboard unavailable")
		return
	}

	clipboard.Write(clipboard.FmtText, []byte(Dump(win.emu)))
	win.status = f("state copied")
}

func (win *Window) Update() (err error) {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		err = ebiten.Termination
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		win.paused = !win.paused
		win.status = ""
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		win.err = win.emu.Reset()
		win.status = f("reset")
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		win.copyState()
	}

	var pressed [cpu.KEY_COUNT]bool
	for _, bind := range win.bindings {
		if ebiten.IsKeyPressed(bind.key) {
			pressed[bind.keypad] = true
		}
	}
	for key, down := range pressed {
		_ = win.emu.Press(key, down)
	}

	running := !win.paused && win.err == nil
	if running {
		win.err = win.emu.Frame()
		if win.err != nil {
			log.Printf("window: %v", win.err)
		}
	}

	if win.sounder != nil {
		win.sounder.Set(running && win.emu.Sounding())
	}

	return
}

func (win *Window) Draw(screen *ebiten.Image) {
	if win.image == nil {
		win.image = ebiten.NewImage(cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT)
	}

	display := win.emu.Display()
	FillPixels(win.pixels, &display, win.fg, win.bg)
	win.image.WritePixels(win.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(win.scale), float64(win.scale))
	screen.DrawImage(win.image, op)

	win.drawOverlay(screen)
}

// drawOverlay shows the pause, status and error text.
func (win *Window) drawOverlay(screen *ebiten.Image) {
	face := basicfont.Face7x13
	overlay := color.RGBA{0xff, 0xff, 0xff, 0xff}
	alert := color.RGBA{0xff, 0x40, 0x40, 0xff}

	y := 16
	if win.paused {
		text.Draw(screen, f("paused"), face, 8, y, overlay)
		y += 16
	}
	if len(win.status) != 0 {
		text.Draw(screen, win.status, face, 8, y, overlay)
		y += 16
	}
	if win.err != nil {
		text.Draw(screen, win.err.Error(), face, 8, y, alert)
		y += 16
		text.Draw(screen, f("F10 to reset, Escape to quit"), face, 8, y, alert)
	}
}

func (win *Window) Layout(_, _ int) (int, int) {
	return cpu.DISPLAY_WIDTH * win.scale, cpu.DISPLAY_HEIGHT * win.scale
}
