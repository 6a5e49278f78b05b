// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"image/color"
	"io/fs"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/chip8/cpu"
)

// Config holds the frontend settings.
type Config struct {
	TicksPerFrame int               `toml:"ticks_per_frame"` // Instructions executed per 60Hz frame.
	Scale         int               `toml:"scale"`           // Host pixels per display pixel.
	Foreground    string            `toml:"foreground"`      // Lit pixel colour, as #rrggbb.
	Background    string            `toml:"background"`      // Unlit pixel colour, as #rrggbb.
	BeepHz        float64           `toml:"beep_hz"`         // Tone frequency while the sound timer runs.
	Volume        float64           `toml:"volume"`          // Tone volume, 0 to 1.
	Keymap        map[string]string `toml:"keymap"`          // Hex keypad key to host key name.
}

// DefaultConfig returns the stock settings: 8 ticks per frame, 15x scale,
// green on black, and the 1234/QWER/ASDF/ZXCV keypad layout.
func DefaultConfig() Config {
	return Config{
		TicksPerFrame: 8,
		Scale:         15,
		Foreground:    "#00ff00",
		Background:    "#000000",
		BeepHz:        440,
		Volume:        0.25,
		Keymap: map[string]string{
			"1": "Digit1", "2": "Digit2", "3": "Digit3", "c": "Digit4",
			"4": "Q", "5": "W", "6": "E", "d": "R",
			"7": "A", "8": "S", "9": "D", "e": "F",
			"a": "Z", "0": "X", "b": "C", "f": "V",
		},
	}
}

// LoadConfig reads a TOML configuration file. Settings missing from the
// file keep their DefaultConfig values, except the keymap, which is
// replaced as a whole if present.
func LoadConfig(fsys fs.FS, name string) (cfg Config, err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	cfg = DefaultConfig()
	var keymap map[string]string
	cfg.Keymap = nil

	md, err := toml.NewDecoder(inf).Decode(&cfg)
	if err != nil {
		return
	}

	undecoded := md.Undecoded()
	if len(undecoded) != 0 {
		err = ErrConfigKey(undecoded[0].String())
		return
	}

	if cfg.Keymap == nil {
		cfg.Keymap = DefaultConfig().Keymap
	} else {
		keymap = cfg.Keymap
		cfg.Keymap = make(map[string]string, len(keymap))
		for key, name := range keymap {
			cfg.Keymap[strings.ToLower(key)] = name
		}
	}

	err = cfg.Validate()

	return
}

// Validate checks the configuration for out of range settings.
func (cfg *Config) Validate() (err error) {
	if cfg.TicksPerFrame <= 0 {
		err = ErrTicksPerFrame
		return
	}

	if cfg.Scale <= 0 {
		err = ErrScale
		return
	}

	if cfg.BeepHz <= 0 {
		err = ErrBeep
		return
	}

	if cfg.Volume < 0 || cfg.Volume > 1 {
		err = ErrVolume
		return
	}

	_, _, err = cfg.Colors()
	if err != nil {
		return
	}

	for _, key := range slices.Sorted(maps.Keys(cfg.Keymap)) {
		_, err = keypadIndex(key)
		if err != nil {
			return
		}
	}

	return
}

// keypadIndex converts a single hex digit to a keypad index.
func keypadIndex(key string) (index int, err error) {
	value, perr := strconv.ParseUint(key, 16, 8)
	if len(key) != 1 || perr != nil || value >= cpu.KEY_COUNT {
		err = ErrKeymap(key)
		return
	}

	index = int(value)
	return
}

// ParseColor parses a #rrggbb colour.
func ParseColor(text string) (rgba color.RGBA, err error) {
	var r, g, b uint8
	if len(text) != 7 || text[0] != '#' {
		err = ErrColor(text)
		return
	}

	_, perr := fmt.Sscanf(text[1:], "%2x%2x%2x", &r, &g, &b)
	if perr != nil {
		err = ErrColor(text)
		return
	}

	rgba = color.RGBA{R: r, G: g, B: b, A: 0xff}
	return
}

// Colors returns the parsed foreground and background colours.
func (cfg *Config) Colors() (fg, bg color.RGBA, err error) {
	fg, err = ParseColor(cfg.Foreground)
	if err != nil {
		return
	}

	bg, err = ParseColor(cfg.Background)
	return
}

// KeyFor returns the keypad key bound to a host key name.
// Host key names are matched without regard to case.
func (cfg *Config) KeyFor(name string) (key int, ok bool) {
	for hex, bound := range cfg.Keymap {
		if !strings.EqualFold(bound, name) {
			continue
		}
		index, err := keypadIndex(hex)
		if err != nil {
			continue
		}
		return index, true
	}

	return
}

// Bindings returns the host key names bound to each keypad key.
func (cfg *Config) Bindings() (names [cpu.KEY_COUNT][]string) {
	for hex, name := range cfg.Keymap {
		index, err := keypadIndex(hex)
		if err != nil {
			continue
		}
		names[index] = append(names[index], name)
	}

	for n := range names {
		slices.Sort(names[n])
	}

	return
}
