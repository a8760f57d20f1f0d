package card

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/interact"
	"github.com/gauthierbraillon/reelfeed/internal/media"
)

// Option configures the Renderer.
type Option func(*Renderer)

// WithSurfaceFactory overrides how playback surfaces are created.
func WithSurfaceFactory(newSurface func() media.Surface) Option {
	return func(r *Renderer) {
		r.newSurface = newSurface
	}
}

// WithLogger sets the renderer's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// Renderer turns video records into cards.
type Renderer struct {
	origin     string
	attacher   *media.Attacher
	coord      *interact.Coordinator
	comments   CommentsOpener
	clipboard  Clipboard
	newSurface func() media.Surface
	logger     zerolog.Logger
}

// NewRenderer creates a renderer. origin prefixes share links.
func NewRenderer(origin string, attacher *media.Attacher, coord *interact.Coordinator, opener CommentsOpener, clipboard Clipboard, opts ...Option) *Renderer {
	r := &Renderer{
		origin:     strings.TrimRight(origin, "/"),
		attacher:   attacher,
		coord:      coord,
		comments:   opener,
		clipboard:  clipboard,
		newSurface: func() media.Surface { return media.NewPlayer() },
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render builds the card for video and attaches its media. A failed adaptive
// session falls back to native playback of the same URL.
func (r *Renderer) Render(ctx context.Context, video gateway.VideoSummary) *Handle {
	surface := r.newSurface()
	if err := r.attacher.Attach(ctx, surface, video.MediaURL); err != nil {
		r.logger.Warn().Err(err).Str("video_id", video.ID).Msg("adaptive playback unavailable, using native source")
		surface.SetSource(video.MediaURL)
	}

	return &Handle{
		video:    video,
		surface:  surface,
		like:     r.coord.Like(video, nil),
		follow:   r.coord.Follow(video, nil),
		renderer: r,
	}
}

// WritePage writes a standalone feed page containing cards. When cards is
// empty, message is shown in place of the feed.
func WritePage(w io.Writer, title string, cards []*Handle, message string) error {
	fragments := make([]template.HTML, 0, len(cards))
	for _, c := range cards {
		html, err := c.HTML()
		if err != nil {
			return err
		}
		fragments = append(fragments, html)
	}

	if len(fragments) == 0 && message == "" {
		message = "No videos found."
	}

	data := struct {
		Title   string
		Message string
		Cards   []template.HTML
	}{Title: title, Message: message, Cards: fragments}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
