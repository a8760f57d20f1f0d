// Package card builds feed cards: one playable, interactive unit per video.
package card

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"

	"github.com/gauthierbraillon/reelfeed/internal/comments"
	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/interact"
	"github.com/gauthierbraillon/reelfeed/internal/media"
)

// ShareConfirmation is the message shown once a deep link is copied.
const ShareConfirmation = "Link copied"

// Clipboard receives shared deep links.
type Clipboard interface {
	WriteText(text string) error
}

// CommentsOpener opens the comments panel for a video.
type CommentsOpener interface {
	Open(ctx context.Context, videoID string) comments.View
}

// Handle is a rendered card.
type Handle struct {
	video    gateway.VideoSummary
	surface  media.Surface
	like     *interact.Like
	follow   *interact.Follow
	renderer *Renderer
}

// ID returns the video id the card shows.
func (h *Handle) ID() string { return h.video.ID }

// Video returns the snapshot the card was rendered from.
func (h *Handle) Video() gateway.VideoSummary { return h.video }

// Surface returns the card's playback surface.
func (h *Handle) Surface() media.Surface { return h.surface }

// Play starts the card's playback surface.
func (h *Handle) Play() error { return h.surface.Play() }

// Pause stops the card's playback surface.
func (h *Handle) Pause() { h.surface.Pause() }

// Release frees the card's media session.
func (h *Handle) Release() { h.renderer.attacher.Detach(h.surface) }

// Like returns the displayed like state.
func (h *Handle) Like() interact.LikeState { return h.like.State() }

// Follow returns the displayed follow state.
func (h *Handle) Follow() interact.FollowState { return h.follow.State() }

// ToggleLike flips the like affordance.
func (h *Handle) ToggleLike(ctx context.Context) interact.Outcome[interact.LikeState] {
	return h.like.Toggle(ctx)
}

// ToggleFollow flips the follow affordance for the video's publisher.
func (h *Handle) ToggleFollow(ctx context.Context) interact.Outcome[interact.FollowState] {
	return h.follow.Toggle(ctx)
}

// OpenComments asks the comments panel to show this video's thread.
func (h *Handle) OpenComments(ctx context.Context) comments.View {
	return h.renderer.comments.Open(ctx, h.video.ID)
}

// ShareURL returns the card's canonical deep link.
func (h *Handle) ShareURL() string {
	return WatchURL(h.renderer.origin, h.video.ID)
}

// Share copies the deep link to the clipboard and returns the confirmation.
func (h *Handle) Share() (string, error) {
	if err := h.renderer.clipboard.WriteText(h.ShareURL()); err != nil {
		return "", fmt.Errorf("failed to copy link: %w", err)
	}
	return ShareConfirmation, nil
}

// HTML renders the card with its current interaction state. Every dynamic
// field is escaped.
func (h *Handle) HTML() (template.HTML, error) {
	like := h.Like()
	data := cardData{
		ID:          h.video.ID,
		Title:       h.video.Title,
		Publisher:   h.video.Publisher,
		PublisherID: h.video.PublisherID,
		Genre:       h.video.Genre,
		AgeRating:   h.video.AgeRating,
		Producer:    h.video.Producer,
		ThumbURL:    h.video.ThumbURL,
		MediaURL:    h.video.MediaURL,
		Adaptive:    media.IsAdaptive(h.video.MediaURL),
		Liked:       like.Liked,
		LikeCount:   like.Count,
		Following:   h.Follow().Following,
		WatchURL:    h.ShareURL(),
	}
	if data.Title == "" {
		data.Title = "Untitled"
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render card %s: %w", h.video.ID, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203 -- produced by html/template
}

// WatchURL builds the deep link for a video.
func WatchURL(origin, id string) string {
	return origin + "/watch?id=" + url.QueryEscape(id)
}
