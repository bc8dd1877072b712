// Package feedback defines the fire-and-forget presentation cues (sounds and
// haptic pulses) emitted after game transitions commit.
package feedback

import (
	"log/slog"
	"sync"
)

// Sound identifies an audio cue.
type Sound string

const (
	SoundNone           Sound = ""
	SoundCardFlip       Sound = "card_flip"
	SoundButtonTap      Sound = "button_tap"
	SoundReveal         Sound = "reveal"
	SoundImposterReveal Sound = "imposter_reveal"
	SoundVictory        Sound = "victory"
	SoundWhoosh         Sound = "whoosh"
)

// Haptic identifies a haptic pulse.
type Haptic string

const (
	HapticNone      Haptic = ""
	HapticLight     Haptic = "light"
	HapticMedium    Haptic = "medium"
	HapticHeavy     Haptic = "heavy"
	HapticSuccess   Haptic = "success"
	HapticWarning   Haptic = "warning"
	HapticSelection Haptic = "selection"
)

// Event is one notification. Transition names the state change that caused it.
type Event struct {
	Transition string `json:"transition"`
	Sound      Sound  `json:"sound,omitempty"`
	Haptic     Haptic `json:"haptic,omitempty"`
}

// Empty reports whether the event carries no cue at all.
func (e Event) Empty() bool {
	return e.Sound == SoundNone && e.Haptic == HapticNone
}

// Sink receives events. Implementations must not block and their result is
// never consulted.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans an event out to every sink in order.
type Multi []Sink

func (m Multi) Notify(e Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(e)
		}
	}
}

// LogSink writes each event at debug level.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) Notify(e Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("feedback", "tag", "feedback", "transition", e.Transition, "sound", string(e.Sound), "haptic", string(e.Haptic))
}

// Gate strips the sound or haptic half of each event according to the
// current toggles, then forwards non-empty events to Next.
type Gate struct {
	Next Sink

	mu      sync.RWMutex
	sound   bool
	haptics bool
}

// NewGate returns a gate in front of next with the given toggles.
func NewGate(next Sink, soundEnabled, hapticsEnabled bool) *Gate {
	return &Gate{Next: next, sound: soundEnabled, haptics: hapticsEnabled}
}

// SetEnabled updates both toggles.
func (g *Gate) SetEnabled(soundEnabled, hapticsEnabled bool) {
	g.mu.Lock()
	g.sound, g.haptics = soundEnabled, hapticsEnabled
	g.mu.Unlock()
}

// Enabled returns the current toggles.
func (g *Gate) Enabled() (sound, haptics bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sound, g.haptics
}

func (g *Gate) Notify(e Event) {
	sound, haptics := g.Enabled()
	if !sound {
		e.Sound = SoundNone
	}
	if !haptics {
		e.Haptic = HapticNone
	}
	if e.Empty() || g.Next == nil {
		return
	}
	g.Next.Notify(e)
}
