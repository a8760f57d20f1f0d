package card

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/reelfeed/internal/comments"
	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/interact"
	"github.com/gauthierbraillon/reelfeed/internal/log"
	"github.com/gauthierbraillon/reelfeed/internal/media"
)

type stubAPI struct {
	likeErr error
}

func (s *stubAPI) SetLike(context.Context, string, bool) (gateway.LikeAck, error) {
	return gateway.LikeAck{}, s.likeErr
}

func (s *stubAPI) SetFollow(context.Context, string, bool) error { return nil }

type recordingOpener struct{ opened []string }

func (o *recordingOpener) Open(_ context.Context, videoID string) comments.View {
	o.opened = append(o.opened, videoID)
	return comments.View{VideoID: videoID}
}

type memClipboard struct {
	text string
	err  error
}

func (c *memClipboard) WriteText(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func newRenderer(api interact.API, opener CommentsOpener, clip Clipboard) *Renderer {
	return NewRenderer("https://reels.example.com/",
		media.NewAttacher(nil),
		interact.NewCoordinator(api, log.Nop()),
		opener, clip)
}

func TestRender_TitleMarkupIsShownLiterally(t *testing.T) {
	r := newRenderer(&stubAPI{}, &recordingOpener{}, &memClipboard{})
	h := r.Render(context.Background(), gateway.VideoSummary{
		ID:        "v1",
		Title:     "<script>x</script>",
		Publisher: `"><img src=x onerror=alert(1)>`,
	})

	html, err := h.HTML()
	require.NoError(t, err)

	out := string(html)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;")
	assert.Equal(t, 1, strings.Count(out, "<article"), "escaped fields must not add structure")
}

func TestRender_UnsafeThumbURLIsNeutralised(t *testing.T) {
	r := newRenderer(&stubAPI{}, &recordingOpener{}, &memClipboard{})
	h := r.Render(context.Background(), gateway.VideoSummary{ID: "v1", ThumbURL: "javascript:alert(1)"})

	html, err := h.HTML()
	require.NoError(t, err)
	assert.NotContains(t, string(html), "javascript:")
}

func TestRender_UntitledFallback(t *testing.T) {
	r := newRenderer(&stubAPI{}, &recordingOpener{}, &memClipboard{})
	html, err := r.Render(context.Background(), gateway.VideoSummary{ID: "v1"}).HTML()
	require.NoError(t, err)
	assert.Contains(t, string(html), "Untitled")
}

func TestRender_AttachesMediaWithoutPlaying(t *testing.T) {
	r := newRenderer(&stubAPI{}, &recordingOpener{}, &memClipboard{})
	h := r.Render(context.Background(), gateway.VideoSummary{ID: "v1", MediaURL: "https://cdn.example.com/v1.mp4"})

	p := h.Surface().(*media.Player)
	assert.Equal(t, "https://cdn.example.com/v1.mp4", p.Source())
	assert.False(t, p.Playing())
}

func TestShare_CopiesCanonicalDeepLink(t *testing.T) {
	clip := &memClipboard{}
	r := newRenderer(&stubAPI{}, &recordingOpener{}, clip)
	h := r.Render(context.Background(), gateway.VideoSummary{ID: "a b/c"})

	msg, err := h.Share()

	require.NoError(t, err)
	assert.Equal(t, ShareConfirmation, msg)
	assert.Equal(t, "https://reels.example.com/watch?id=a+b%2Fc", clip.text)
}

func TestShare_ClipboardFailure(t *testing.T) {
	r := newRenderer(&stubAPI{}, &recordingOpener{}, &memClipboard{err: errors.New("denied")})
	_, err := r.Render(context.Background(), gateway.VideoSummary{ID: "v1"}).Share()
	require.Error(t, err)
}

func TestOpenComments_RequestsPanelForCardVideo(t *testing.T) {
	opener := &recordingOpener{}
	r := newRenderer(&stubAPI{}, opener, &memClipboard{})

	r.Render(context.Background(), gateway.VideoSummary{ID: "v7"}).OpenComments(context.Background())

	assert.Equal(t, []string{"v7"}, opener.opened)
}

func TestToggleLike_ReflectedInHTML(t *testing.T) {
	r := newRenderer(&stubAPI{}, &recordingOpener{}, &memClipboard{})
	h := r.Render(context.Background(), gateway.VideoSummary{ID: "v1", LikeCount: 10})

	h.ToggleLike(context.Background())

	html, err := h.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(html), `aria-pressed="true"`)
	assert.Contains(t, string(html), `<span class="count">11</span>`)
}

func TestToggleLike_FailureLeavesCardUnchanged(t *testing.T) {
	r := newRenderer(&stubAPI{likeErr: errors.New("offline")}, &recordingOpener{}, &memClipboard{})
	h := r.Render(context.Background(), gateway.VideoSummary{ID: "v1", LikeCount: 10})

	out := h.ToggleLike(context.Background())

	assert.True(t, out.Reverted)
	assert.Equal(t, interact.LikeState{Liked: false, Count: 10}, h.Like())
}

func TestWritePage_EmptyFeedShowsMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePage(&buf, "Feed", nil, ""))
	assert.Contains(t, buf.String(), "No videos found.")
}

func TestWritePage_EmbedsCards(t *testing.T) {
	r := newRenderer(&stubAPI{}, &recordingOpener{}, &memClipboard{})
	cards := []*Handle{
		r.Render(context.Background(), gateway.VideoSummary{ID: "v1", Title: "One"}),
		r.Render(context.Background(), gateway.VideoSummary{ID: "v2", Title: "Two"}),
	}

	var buf bytes.Buffer
	require.NoError(t, WritePage(&buf, "Feed", cards, ""))

	assert.Equal(t, 2, strings.Count(buf.String(), `<article class="video-card"`))
	assert.NotContains(t, buf.String(), "&lt;article")
}

func TestRender_ProducerIsEscapedAndOptional(t *testing.T) {
	r := newRenderer(&stubAPI{}, &recordingOpener{}, &memClipboard{})

	with, err := r.Render(context.Background(), gateway.VideoSummary{ID: "v1", Producer: "<b>North</b>"}).HTML()
	require.NoError(t, err)
	assert.Contains(t, string(with), "Produced by &lt;b&gt;North&lt;/b&gt;")

	without, err := r.Render(context.Background(), gateway.VideoSummary{ID: "v2"}).HTML()
	require.NoError(t, err)
	assert.NotContains(t, string(without), "Produced by")
}
