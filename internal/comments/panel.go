// Package comments implements the on-demand comments panel.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gauthierbraillon/reelfeed/internal/gateway"
)

// ErrNotOpen is returned when posting before the panel has been opened.
var ErrNotOpen = errors.New("comments panel is not open")

// API is the subset of the gateway the panel needs.
type API interface {
	ListComments(ctx context.Context, videoID string) ([]gateway.Comment, error)
	PostComment(ctx context.Context, videoID, text string) error
}

// View is what the panel shows.
type View struct {
	VideoID  string
	Comments []gateway.Comment
	// Unavailable is set when the thread could not be loaded; the panel then
	// shows "No comments" rather than an error.
	Unavailable bool
}

// Panel shows one video's comment thread at a time.
type Panel struct {
	api    API
	logger zerolog.Logger

	mu   sync.Mutex
	view View
	open bool
}

// NewPanel creates a closed panel.
func NewPanel(api API, logger zerolog.Logger) *Panel {
	return &Panel{api: api, logger: logger}
}

// Open loads the thread for videoID and makes it the panel's subject.
func (p *Panel) Open(ctx context.Context, videoID string) View {
	view := p.load(ctx, videoID)

	p.mu.Lock()
	p.view = view
	p.open = true
	p.mu.Unlock()

	return view
}

// Close hides the panel.
func (p *Panel) Close() {
	p.mu.Lock()
	p.open = false
	p.view = View{}
	p.mu.Unlock()
}

// Current returns the panel's view and whether it is open.
func (p *Panel) Current() (View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view, p.open
}

// Post submits a comment on the open video and reloads the thread. Blank text
// is ignored. Failures are returned so the caller can show them inline.
func (p *Panel) Post(ctx context.Context, text string) (View, error) {
	p.mu.Lock()
	view, open := p.view, p.open
	p.mu.Unlock()

	if !open {
		return View{}, ErrNotOpen
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return view, nil
	}

	if err := p.api.PostComment(ctx, view.VideoID, text); err != nil {
		return view, fmt.Errorf("couldn't post comment: %s: %w", gateway.Message(err), err)
	}

	return p.Open(ctx, view.VideoID), nil
}

func (p *Panel) load(ctx context.Context, videoID string) View {
	comments, err := p.api.ListComments(ctx, videoID)
	if err != nil {
		p.logger.Warn().Err(err).Str("video_id", videoID).Msg("failed to load comments")
		return View{VideoID: videoID, Comments: []gateway.Comment{}, Unavailable: true}
	}
	return View{VideoID: videoID, Comments: comments}
}
