// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"strings"
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
)

// Display is the monochrome framebuffer, stored row-major.
type Display [DISPLAY_WIDTH * DISPLAY_HEIGHT]bool

// Pixel returns the state of the pixel at (x, y). Coordinates wrap.
func (d *Display) Pixel(x, y int) bool {
	return d[d.index(x, y)]
}

// Lit returns the number of pixels that are on.
func (d *Display) Lit() (count int) {
	for _, on := range d {
		if on {
			count++
		}
	}
	return
}

// Clear turns all pixels off.
func (d *Display) Clear() {
	clear(d[:])
}

// flip toggles the pixel at (x, y), returning the state it had before.
func (d *Display) flip(x, y int) (was bool) {
	n := d.index(x, y)
	was = d[n]
	d[n] = !was
	return
}

func (d *Display) index(x, y int) int {
	x %= DISPLAY_WIDTH
	if x < 0 {
		x += DISPLAY_WIDTH
	}
	y %= DISPLAY_HEIGHT
	if y < 0 {
		y += DISPLAY_HEIGHT
	}
	return y*DISPLAY_WIDTH + x
}

// String renders the display one text line per row, '#' for on and '.' for off.
func (d *Display) String() string {
	var text strings.Builder

	text.Grow((DISPLAY_WIDTH + 1) * DISPLAY_HEIGHT)
	for y := range DISPLAY_HEIGHT {
		for x := range DISPLAY_WIDTH {
			if d[y*DISPLAY_WIDTH+x] {
				text.WriteByte('#')
			} else {
				text.WriteByte('.')
			}
		}
		text.WriteByte('\n')
	}

	return text.String()
}
