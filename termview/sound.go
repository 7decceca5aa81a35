package termview

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/phanxgames/vendfall"
)

const sampleRate = beep.SampleRate(44100)

// Sound plays short cues for frame events.
type Sound interface {
	Play(e vendfall.Event)
	Close()
}

type nopSound struct{}

func (nopSound) Play(vendfall.Event) {}
func (nopSound) Close()              {}

// beepSound synthesises cues with beep. Impacts are a low thud, dispenses a
// short chime.
type beepSound struct {
	mixer *beep.Mixer
}

// NewSound initialises the speaker. On failure the returned Sound is silent
// and the error is returned for logging; audio is never required.
func NewSound() (Sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nopSound{}, err
	}
	s := &beepSound{mixer: &beep.Mixer{}}
	speaker.Play(s.mixer)
	return s, nil
}

// cue returns the tone frequency and length for an event kind. A zero
// frequency means the event is silent.
func cue(k vendfall.EventKind) (freq float64, d time.Duration) {
	switch k {
	case vendfall.EventImpact:
		return 70, 180 * time.Millisecond
	case vendfall.EventLanded:
		return 110, 120 * time.Millisecond
	case vendfall.EventDispensed:
		return 880, 60 * time.Millisecond
	case vendfall.EventWeather:
		return 440, 90 * time.Millisecond
	default:
		return 0, 0
	}
}

func (s *beepSound) Play(e vendfall.Event) {
	freq, d := cue(e.Kind)
	if freq == 0 {
		return
	}
	tone, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	quiet := &effects.Volume{Streamer: beep.Take(sampleRate.N(d), tone), Base: 2, Volume: -2}
	speaker.Lock()
	s.mixer.Add(quiet)
	speaker.Unlock()
}

func (s *beepSound) Close() {
	speaker.Clear()
}
