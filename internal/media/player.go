package media

import (
	"errors"
	"sync"
)

// ErrNoSource is returned when playing a surface nothing was attached to.
var ErrNoSource = errors.New("no media source attached")

// Player is an in-memory Surface for headless clients and tests.
type Player struct {
	mu      sync.Mutex
	source  string
	playing bool
}

// NewPlayer creates an empty, paused player.
func NewPlayer() *Player {
	return &Player{}
}

// SetSource loads a new source and pauses.
func (p *Player) SetSource(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = url
	p.playing = false
}

// Play starts playback.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.source == "" {
		return ErrNoSource
	}
	p.playing = true
	return nil
}

// Pause stops playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

// Playing reports whether the player is playing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Source returns the loaded source.
func (p *Player) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}
