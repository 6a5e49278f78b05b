// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package host

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// Tone is a gated square wave generator, producing mono 32-bit float
// little-endian samples.
type Tone struct {
	SampleRate int     // Samples per second.
	Hz         float64 // Square wave frequency.
	Volume     float64 // Peak amplitude, 0 to 1.

	on    atomic.Bool
	phase float64
}

// Set gates the tone on or off.
func (tone *Tone) Set(on bool) {
	tone.on.Store(on)
}

// On returns true if the tone is gated on.
func (tone *Tone) On() bool {
	return tone.on.Load()
}

// Read fills p with whole samples. Silence is produced while gated off.
func (tone *Tone) Read(p []byte) (n int, err error) {
	on := tone.on.Load()
	step := tone.Hz / float64(tone.SampleRate)

	for n+4 <= len(p) {
		var sample float32
		if on {
			sample = float32(tone.Volume)
			if tone.phase >= 0.5 {
				sample = -sample
			}
			tone.phase += step
			tone.phase -= math.Floor(tone.phase)
		}
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(sample))
		n += 4
	}

	if !on {
		tone.phase = 0
	}

	return
}
