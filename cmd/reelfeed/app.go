package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/gauthierbraillon/reelfeed/internal/card"
	"github.com/gauthierbraillon/reelfeed/internal/comments"
	"github.com/gauthierbraillon/reelfeed/internal/config"
	"github.com/gauthierbraillon/reelfeed/internal/display"
	"github.com/gauthierbraillon/reelfeed/internal/feed"
	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/interact"
	"github.com/gauthierbraillon/reelfeed/internal/log"
	"github.com/gauthierbraillon/reelfeed/internal/media"
	"github.com/gauthierbraillon/reelfeed/internal/playback"
	"github.com/gauthierbraillon/reelfeed/pkg/identity"
)

// principalTimeout bounds the identity lookup at startup.
const principalTimeout = 3 * time.Second

// app wires the feed engine for one command invocation.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	client     *gateway.Client
	attacher   *media.Attacher
	panel      *comments.Panel
	controller *playback.Controller
	renderer   *card.Renderer
	pager      *feed.Pager
	formatter  *display.TerminalFormatter
}

// printClipboard stands in for the system clipboard by printing the link.
type printClipboard struct {
	w io.Writer
}

func (c printClipboard) WriteText(text string) error {
	_, err := fmt.Fprintln(c.w, text)
	return err
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Output: cmd.ErrOrStderr()})

	opts := []gateway.ClientOption{}
	if cfg.RateLimit > 0 {
		opts = append(opts, gateway.WithLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)))
	}
	client := gateway.NewClient(cfg.APIURL, opts...)

	if principal := loadPrincipal(ctx, cfg); principal != "" {
		client.SetPrincipal(principal)
	}

	attacher := media.NewAttacher(media.NewHeadlessEngine(nil))
	panel := comments.NewPanel(client, log.WithComponent("comments"))
	controller := playback.NewController(log.WithComponent("playback"))
	coord := interact.NewCoordinator(client, log.WithComponent("interact"))
	renderer := card.NewRenderer(cfg.Origin, attacher, coord, panel,
		printClipboard{w: cmd.OutOrStdout()},
		card.WithLogger(log.WithComponent("card")))

	return &app{
		cfg:        cfg,
		logger:     log.WithComponent("cli"),
		client:     client,
		attacher:   attacher,
		panel:      panel,
		controller: controller,
		renderer:   renderer,
		pager:      feed.NewPager(client, renderer, controller, log.WithComponent("feed")),
		formatter:  display.NewTerminalFormatter(),
	}, nil
}

// loadPrincipal prefers the stored principal and otherwise asks the identity
// bridge once. Browsing continues anonymously when neither yields one.
func loadPrincipal(ctx context.Context, cfg *config.Config) string {
	logger := log.WithComponent("identity")

	principal, err := identity.NewStorage(cfg.ConfigDir).Load()
	if err == nil {
		return principal
	}
	if !errors.Is(err, identity.ErrPrincipalNotFound) {
		logger.Warn().Err(err).Msg("stored principal unreadable")
	}

	ctx, cancel := context.WithTimeout(ctx, principalTimeout)
	defer cancel()

	principal, err = identity.NewBridge(cfg.Origin).Fetch(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("browsing anonymously")
		return ""
	}
	return principal
}

// useSearch pages the results of query instead of the feed.
func (a *app) useSearch(query string) {
	lister := gateway.SearchLister{Client: a.client, Query: query}
	a.pager = feed.NewPager(lister, a.renderer, a.controller,
		log.WithComponent("feed").With().Str("search", query).Logger())
}

// loadPages loads up to n pages, stopping early once the feed is exhausted.
func (a *app) loadPages(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		res, err := a.pager.LoadMore(ctx)
		if err != nil {
			if a.pager.Len() == 0 {
				return fmt.Errorf("couldn't load videos: %s", gateway.Message(err))
			}
			a.logger.Warn().Err(err).Msg("stopped loading more pages")
			return nil
		}
		if res.Exhausted {
			return nil
		}
	}
	return nil
}

// focus makes card i the fully visible one and settles playback.
func (a *app) focus(cards []*card.Handle, i int) {
	batch := make([]playback.Visibility, 0, 2)
	for j, c := range cards {
		switch {
		case j == i:
			batch = append(batch, playback.Visibility{ID: c.ID(), Ratio: 1})
		case j == i-1 || j == i+1:
			batch = append(batch, playback.Visibility{ID: c.ID(), Ratio: 0})
		}
	}
	if err := a.controller.Observe(batch); err != nil {
		a.logger.Debug().Err(err).Msg("visibility batch referenced unknown cards")
	}
}

func (a *app) playingID() string {
	id, _ := a.controller.Playing()
	return id
}
