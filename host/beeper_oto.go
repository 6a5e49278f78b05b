//go:build !headless

// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package host

import (
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/ezrec/chip8/emulator"
)

// Beeper plays a tone on the host audio device while gated on.
type Beeper struct {
	Tone

	ctx    *oto.Context
	player *oto.Player
	mutex  sync.Mutex
}

// NewBeeper opens the host audio device.
func NewBeeper(cfg emulator.Config) (beeper *Beeper, err error) {
	op := &oto.NewContextOptions{
		SampleRate:   SAMPLE_RATE,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return
	}
	<-ready

	beeper = &Beeper{
		Tone: Tone{
			SampleRate: SAMPLE_RATE,
			Hz:         cfg.BeepHz,
			Volume:     cfg.Volume,
		},
		ctx: ctx,
	}
	beeper.player = ctx.NewPlayer(&beeper.Tone)
	beeper.player.Play()

	return
}

// Close stops the tone.
func (beeper *Beeper) Close() (err error) {
	beeper.mutex.Lock()
	defer beeper.mutex.Unlock()

	if beeper.player != nil {
		err = beeper.player.Close()
		beeper.player = nil
	}

	return
}
