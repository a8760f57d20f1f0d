package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gauthierbraillon/reelfeed/internal/card"
	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/metrics"
	"github.com/gauthierbraillon/reelfeed/internal/playback"
)

// Lister fetches listing pages.
type Lister interface {
	ListFeed(ctx context.Context, cursor string) (gateway.Page, error)
	ListVideos(ctx context.Context, cursor string) (gateway.Page, error)
}

// Renderer builds cards from video records.
type Renderer interface {
	Render(ctx context.Context, video gateway.VideoSummary) *card.Handle
}

// Registry observes appended cards for playback.
type Registry interface {
	Register(card playback.Card)
}

// Status summarises the feed for display.
type Status int

const (
	// StatusLoading means the first page has not resolved yet.
	StatusLoading Status = iota
	// StatusReady means at least one card is on the feed.
	StatusReady
	// StatusEmpty means the catalog had nothing to show.
	StatusEmpty
	// StatusError means the first load failed; the feed shows the error.
	StatusError
)

// Result reports what one trigger did.
type Result struct {
	// Triggered is false when a scroll was not close enough to the end.
	Triggered bool
	Appended  int
	Exhausted bool
	// Source is the listing that served the page: "feed" or "videos".
	Source string
	// Shared is true when the call joined a fetch another trigger started.
	Shared bool
}

// Pager appends feed pages to an ordered card list.
type Pager struct {
	session  *Session
	lister   Lister
	renderer Renderer
	registry Registry
	logger   zerolog.Logger
	group    singleflight.Group

	mu        sync.Mutex
	cards     []*card.Handle
	seen      map[string]struct{}
	status    Status
	statusMsg string
}

// NewPager creates a pager over a fresh session.
func NewPager(lister Lister, renderer Renderer, registry Registry, logger zerolog.Logger) *Pager {
	session := NewSession()
	return &Pager{
		session:  session,
		lister:   lister,
		renderer: renderer,
		registry: registry,
		logger:   logger.With().Str("session_id", session.ID()).Logger(),
		seen:     make(map[string]struct{}),
	}
}

// Session returns the pager's session.
func (p *Pager) Session() *Session { return p.session }

// LoadMore fetches and appends the next page. Concurrent calls collapse into
// the single fetch in flight and share its outcome. Once the feed is
// exhausted it returns immediately without a request.
func (p *Pager) LoadMore(ctx context.Context) (Result, error) {
	if p.session.State() == Exhausted {
		return Result{Triggered: true, Exhausted: true}, nil
	}

	v, err, shared := p.group.Do("next", func() (any, error) {
		return p.fetchNext(ctx)
	})
	res, _ := v.(Result)
	res.Triggered = true
	res.Shared = shared
	return res, err
}

func (p *Pager) fetchNext(ctx context.Context) (Result, error) {
	cursor, ok := p.session.begin()
	if !ok {
		return Result{Exhausted: p.session.State() == Exhausted}, nil
	}

	page, source, err := p.fetchPage(ctx, cursor)
	if err != nil {
		p.session.fail()
		p.setStatusIfFirst(StatusError, gateway.Message(err))
		p.logger.Warn().Err(err).Str("cursor", cursor).Msg("feed page failed, will retry on next trigger")
		return Result{}, err
	}

	if len(page.Items) == 0 {
		p.session.exhaust()
		p.setStatusIfFirst(StatusEmpty, "No videos found.")
		metrics.IncExhausted()
		p.logger.Info().Str("cursor", cursor).Msg("feed exhausted")
		return Result{Exhausted: true, Source: source}, nil
	}

	appended := p.appendItems(ctx, page.Items)
	if appended == 0 {
		p.logger.Warn().
			Str("source", source).
			Str("cursor", cursor).
			Int("items", len(page.Items)).
			Msg("page held only cards already on the feed")
	}

	next := page.NextCursor
	if next == "" {
		next = lastID(page.Items)
	}
	if next == "" {
		next = cursor
	}
	p.session.advance(next)

	p.logger.Debug().
		Str("source", source).
		Int("appended", appended).
		Str("next_cursor", next).
		Msg("feed page appended")

	return Result{Appended: appended, Source: source}, nil
}

// fetchPage tries the feed endpoint, then the video listing once.
func (p *Pager) fetchPage(ctx context.Context, cursor string) (gateway.Page, string, error) {
	page, err := p.lister.ListFeed(ctx, cursor)
	metrics.IncPageFetch(metrics.EndpointFeed, err == nil)
	if err == nil {
		return page, metrics.EndpointFeed, nil
	}

	metrics.IncFallback()
	p.logger.Debug().Err(err).Msg("feed endpoint failed, falling back to video listing")

	page, fallbackErr := p.lister.ListVideos(ctx, cursor)
	metrics.IncPageFetch(metrics.EndpointVideos, fallbackErr == nil)
	if fallbackErr == nil {
		return page, metrics.EndpointVideos, nil
	}

	return gateway.Page{}, "", errors.Join(
		fmt.Errorf("feed: %w", err),
		fmt.Errorf("videos: %w", fallbackErr),
	)
}

// lastID returns the id of the last item that has one.
func lastID(items []gateway.VideoSummary) string {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].ID != "" {
			return items[i].ID
		}
	}
	return ""
}

// appendItems renders each new item and registers it for playback as it is
// appended. Items already on the feed are skipped.
func (p *Pager) appendItems(ctx context.Context, items []gateway.VideoSummary) int {
	appended := 0
	for _, item := range items {
		p.mu.Lock()
		_, dup := p.seen[item.ID]
		p.mu.Unlock()
		if dup || item.ID == "" {
			continue
		}

		h := p.renderer.Render(ctx, item)

		p.mu.Lock()
		p.seen[item.ID] = struct{}{}
		p.cards = append(p.cards, h)
		if p.registry != nil {
			p.registry.Register(h)
		}
		p.status = StatusReady
		p.statusMsg = ""
		p.mu.Unlock()
		appended++
	}
	metrics.AddCardsAppended(appended)
	return appended
}

func (p *Pager) setStatusIfFirst(status Status, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.cards) == 0 {
		p.status = status
		p.statusMsg = msg
	}
}

// Status reports whether the feed is loading, ready, empty or failed, with
// the message to show for the last two.
func (p *Pager) Status() (Status, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.statusMsg
}

// Cards returns the appended cards in feed order.
func (p *Pager) Cards() []*card.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*card.Handle(nil), p.cards...)
}

// Len returns the number of appended cards.
func (p *Pager) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cards)
}
