package emulator

import (
	"image/color"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.NoError(cfg.Validate())
	assert.Equal(8, cfg.TicksPerFrame)
	assert.Equal(15, cfg.Scale)

	fg, bg, err := cfg.Colors()
	assert.NoError(err)
	assert.Equal(color.RGBA{R: 0, G: 0xff, B: 0, A: 0xff}, fg)
	assert.Equal(color.RGBA{A: 0xff}, bg)

	table := map[string]int{
		"Digit1": 0x1, "Digit2": 0x2, "Digit3": 0x3, "Digit4": 0xc,
		"Q": 0x4, "W": 0x5, "E": 0x6, "R": 0xd,
		"A": 0x7, "S": 0x8, "D": 0x9, "F": 0xe,
		"Z": 0xa, "X": 0x0, "C": 0xb, "V": 0xf,
	}
	for name, expected := range table {
		key, ok := cfg.KeyFor(name)
		assert.True(ok, name)
		assert.Equal(expected, key, name)
	}

	bindings := cfg.Bindings()
	assert.Equal([]string{"X"}, bindings[0x0])
	assert.Equal([]string{"Digit4"}, bindings[0xc])
}

func TestLoadConfig(t *testing.T) {
	assert := assert.New(t)

	fsys := fstest.MapFS{
		"chip8.toml": &fstest.MapFile{Data: []byte(`
ticks_per_frame = 12
foreground = "#ffb000"

[keymap]
0 = "Space"
A = "Enter"
`)},
	}

	cfg, err := LoadConfig(fsys, "chip8.toml")
	assert.NoError(err)
	assert.Equal(12, cfg.TicksPerFrame)
	assert.Equal(15, cfg.Scale)
	assert.Equal("#ffb000", cfg.Foreground)
	assert.Equal(map[string]string{"0": "Space", "a": "Enter"}, cfg.Keymap)

	key, ok := cfg.KeyFor("space")
	assert.True(ok)
	assert.Equal(0x0, key)

	_, ok = cfg.KeyFor("X")
	assert.False(ok)
}

func TestLoadConfigDefaultKeymap(t *testing.T) {
	assert := assert.New(t)

	fsys := fstest.MapFS{
		"chip8.toml": &fstest.MapFile{Data: []byte("scale = 4\n")},
	}

	cfg, err := LoadConfig(fsys, "chip8.toml")
	assert.NoError(err)
	assert.Equal(4, cfg.Scale)
	assert.Equal(DefaultConfig().Keymap, cfg.Keymap)
}

func TestLoadConfigErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		text string
		err  error
	}){
		{"ticks_per_frame = 0\n", ErrTicksPerFrame},
		{"scale = -1\n", ErrScale},
		{"volume = 1.5\n", ErrVolume},
		{"beep_hz = 0.0\n", ErrBeep},
		{"foreground = \"green\"\n", ErrColor("green")},
		{"background = \"#12345g\"\n", ErrColor("#12345g")},
		{"[keymap]\n10 = \"Q\"\n", ErrKeymap("10")},
		{"[keymap]\ng = \"Q\"\n", ErrKeymap("g")},
		{"speed = 3\n", ErrConfigKey("speed")},
	}

	for _, entry := range table {
		fsys := fstest.MapFS{
			"chip8.toml": &fstest.MapFile{Data: []byte(entry.text)},
		}
		_, err := LoadConfig(fsys, "chip8.toml")
		assert.ErrorIs(err, entry.err, entry.text)
	}

	_, err := LoadConfig(fstest.MapFS{}, "missing.toml")
	assert.Error(err)

	fsys := fstest.MapFS{
		"chip8.toml": &fstest.MapFile{Data: []byte("scale = \"big\"\n")},
	}
	_, err = LoadConfig(fsys, "chip8.toml")
	assert.Error(err)
}

func TestParseColor(t *testing.T) {
	assert := assert.New(t)

	rgba, err := ParseColor("#102030")
	assert.NoError(err)
	assert.Equal(color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, rgba)

	rgba, err = ParseColor("#ABCDEF")
	assert.NoError(err)
	assert.Equal(color.RGBA{R: 0xab, G: 0xcd, B: 0xef, A: 0xff}, rgba)

	for _, text := range []string{"", "#", "102030", "#1020", "#10203040", "#xx2030"} {
		_, err = ParseColor(text)
		assert.ErrorIs(err, ErrColor(text), text)
	}
}
