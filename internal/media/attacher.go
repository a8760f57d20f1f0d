// Package media binds playable sources to playback surfaces.
package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

// Surface is something that can render video: a card's player element in a
// browser, or its terminal stand-in.
//
// Implementations must be comparable (pointer receivers), since the attacher
// tracks adaptive sessions per surface.
type Surface interface {
	SetSource(url string)
	Play() error
	Pause()
}

// BufferPolicy bounds how far ahead an adaptive session buffers.
type BufferPolicy struct {
	Target time.Duration
	Max    time.Duration
}

// DefaultBufferPolicy keeps per-card memory and bandwidth small.
var DefaultBufferPolicy = BufferPolicy{Target: 10 * time.Second, Max: 30 * time.Second}

// Session is one adaptive-streaming playback session.
type Session interface {
	Bind(surface Surface) error
	Close() error
}

// AdaptiveEngine creates adaptive-streaming sessions when the runtime supports them.
type AdaptiveEngine interface {
	Supported() bool
	NewSession(ctx context.Context, manifestURL string, policy BufferPolicy) (Session, error)
}

// Attacher chooses between native and adaptive playback for each surface.
type Attacher struct {
	engine AdaptiveEngine
	policy BufferPolicy

	mu       sync.Mutex
	sessions map[Surface]Session
}

// NewAttacher creates an attacher. A nil engine means adaptive playback is
// unavailable and every source is set natively.
func NewAttacher(engine AdaptiveEngine) *Attacher {
	return &Attacher{
		engine:   engine,
		policy:   DefaultBufferPolicy,
		sessions: make(map[Surface]Session),
	}
}

// Attach binds sourceURL to surface without starting playback. An empty URL is
// a no-op. Attaching again replaces any earlier adaptive session.
func (a *Attacher) Attach(ctx context.Context, surface Surface, sourceURL string) error {
	if sourceURL == "" {
		return nil
	}

	a.Detach(surface)

	if IsAdaptive(sourceURL) && a.engine != nil && a.engine.Supported() {
		session, err := a.engine.NewSession(ctx, sourceURL, a.policy)
		if err != nil {
			return fmt.Errorf("failed to start adaptive session: %w", err)
		}
		if err := session.Bind(surface); err != nil {
			_ = session.Close()
			return fmt.Errorf("failed to bind adaptive session: %w", err)
		}
		a.mu.Lock()
		a.sessions[surface] = session
		a.mu.Unlock()
		return nil
	}

	surface.SetSource(sourceURL)
	return nil
}

// Detach releases the adaptive session bound to surface, if any.
func (a *Attacher) Detach(surface Surface) {
	a.mu.Lock()
	session, ok := a.sessions[surface]
	delete(a.sessions, surface)
	a.mu.Unlock()

	if ok {
		_ = session.Close()
	}
}

// SessionFor returns the adaptive session bound to surface.
func (a *Attacher) SessionFor(surface Surface) (Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[surface]
	return s, ok
}

// IsAdaptive reports whether the URL names an HLS manifest.
func IsAdaptive(sourceURL string) bool {
	p := sourceURL
	if u, err := url.Parse(sourceURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.EqualFold(path.Ext(p), ".m3u8")
}
