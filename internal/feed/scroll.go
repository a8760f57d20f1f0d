package feed

import "context"

// LoadThreshold is how close to the end of the content, in pixels, a scroll
// must come before the next page is requested.
const LoadThreshold = 800

// ScrollMetrics describes the scroll position of the feed container.
type ScrollMetrics struct {
	ScrollTop      float64
	ViewportHeight float64
	ContentHeight  float64
}

// Remaining returns the unseen scrollable distance below the viewport.
func (m ScrollMetrics) Remaining() float64 {
	return m.ContentHeight - (m.ScrollTop + m.ViewportHeight)
}

// NearEnd reports whether the next page should be requested.
func (m ScrollMetrics) NearEnd() bool {
	return m.Remaining() < LoadThreshold
}

// OnScroll requests the next page when the scroll position is near the end.
func (p *Pager) OnScroll(ctx context.Context, m ScrollMetrics) (Result, error) {
	if !m.NearEnd() {
		return Result{}, nil
	}
	return p.LoadMore(ctx)
}
