package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate  = beep.SampleRate(44100)
	selectTone  = 880
	releaseTone = 440
	cueLength   = 60 * time.Millisecond
)

// cue plays short tones on selection changes. A failed speaker init
// leaves it silent.
type cue struct {
	ready bool
}

func newCue() (*cue, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return &cue{}, err
	}
	return &cue{ready: true}, nil
}

func (c *cue) play(freq int) {
	if c == nil || !c.ready {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(cueLength), sine))
}

func (c *cue) close() {
	if c != nil && c.ready {
		speaker.Close()
		c.ready = false
	}
}
