// Package main provides the reelfeed CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gauthierbraillon/reelfeed/internal/card"
	"github.com/gauthierbraillon/reelfeed/internal/config"
	"github.com/gauthierbraillon/reelfeed/internal/feed"
	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/media"
	"github.com/gauthierbraillon/reelfeed/pkg/browser"
	"github.com/gauthierbraillon/reelfeed/pkg/identity"
)

// cardHeight is the height of one full-screen card in the simulated viewport.
const cardHeight = 800

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command for the reelfeed CLI.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "reelfeed",
		Short:        "Browse a short-form video feed",
		Long:         "Reelfeed pages through a vertical video feed, plays one card at a time and lets you like, follow, comment on and share videos.",
		Version:      currentVersion(),
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate("reelfeed version {{.Version}}\n")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newFeedCmd())
	rootCmd.AddCommand(newHTMLCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newCommentCmd())
	rootCmd.AddCommand(newShareCmd())
	rootCmd.AddCommand(newRateCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// newAuthCmd creates the auth subcommand.
func newAuthCmd() *cobra.Command {
	var token string
	var logout bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Store the signed-in principal",
		Long:  "Fetch the principal from the site's identity endpoint, or take one with --token, and store it for later commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			storage := identity.NewStorage(cfg.ConfigDir)

			if logout {
				if err := storage.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			}

			if token == "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()

				token, err = identity.NewBridge(cfg.Origin).Fetch(ctx)
				if errors.Is(err, identity.ErrNoPrincipal) {
					return fmt.Errorf("not signed in at %s: sign in with your browser first or pass --token", cfg.Origin)
				}
				if err != nil {
					return fmt.Errorf("identity lookup failed: %w", err)
				}
			}

			if err := storage.Save(token); err != nil {
				return fmt.Errorf("failed to save principal: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Principal saved to: %s\n", cfg.ConfigDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "Principal token to store instead of asking the identity endpoint")
	cmd.Flags().BoolVar(&logout, "logout", false, "Remove the stored principal")

	return cmd
}

// newFeedCmd creates the feed subcommand.
func newFeedCmd() *cobra.Command {
	var pages int
	var interactive bool
	var metricsAddr string
	var search string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Page through the video feed",
		Long:  "Open a feed session and print its cards. With --interactive, step through the feed one card at a time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			if search != "" {
				a.useSearch(search)
			}

			if metricsAddr != "" {
				shutdown := serveMetrics(metricsAddr, a)
				defer shutdown()
			}

			if err := a.greet(ctx, cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("couldn't load videos: %s", gateway.Message(err))
			}
			if err := a.loadPages(ctx, pages-1); err != nil {
				return err
			}

			cards := a.pager.Cards()
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No videos found.")
				return nil
			}
			a.focus(cards, 0)

			if interactive {
				return a.interact(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter.FormatFeed(cards, a.playingID()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "n", 1, "Number of pages to load")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Step through the feed with single-key commands")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Page through videos matching this search instead of the feed")

	return cmd
}

// greet resolves the signed-in user and the first page concurrently. A
// missing user is not an error; a failed first page is.
func (a *app) greet(ctx context.Context, w io.Writer) error {
	var user *gateway.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := a.client.Me(gctx)
		if err != nil {
			a.logger.Debug().Err(err).Msg("no signed-in user")
			return nil
		}
		user = u
		return nil
	})
	g.Go(func() error {
		_, err := a.pager.LoadMore(gctx)
		return err
	})
	err := g.Wait()

	if user != nil {
		fmt.Fprintf(w, "Signed in as %s\n", user.DisplayName())
	}
	return err
}

// serveMetrics exposes /metrics until the returned shutdown is called.
func serveMetrics(addr string, a *app) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// interact runs the single-key command loop over the feed.
func (a *app) interact(ctx context.Context, in io.Reader, out io.Writer) error {
	pos := 0
	show := func() {
		cards := a.pager.Cards()
		fmt.Fprintf(out, "%d/%d %s\n", pos+1, len(cards), a.formatter.FormatCard(cards[pos], a.playingID() == cards[pos].ID()))
	}
	show()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		cards := a.pager.Cards()
		current := cards[pos]

		switch strings.TrimSpace(scanner.Text()) {
		case "j":
			if pos+1 >= len(cards) {
				err := a.scroll(ctx, pos)
				if pos+1 >= a.pager.Len() {
					switch {
					case a.pager.Session().State() == feed.Exhausted:
						fmt.Fprintln(out, "End of feed.")
					case err != nil:
						fmt.Fprintf(out, "Couldn't load more videos: %s\n", gateway.Message(err))
					default:
						fmt.Fprintln(out, "No new videos yet.")
					}
					continue
				}
			}
			pos++
			_ = a.scroll(ctx, pos)
			a.focus(a.pager.Cards(), pos)
			show()
		case "k":
			if pos == 0 {
				continue
			}
			pos--
			a.focus(cards, pos)
			show()
		case "l":
			res := current.ToggleLike(ctx)
			if res.Err != nil {
				fmt.Fprintf(out, "Like failed: %s\n", gateway.Message(res.Err))
			}
			show()
		case "f":
			res := current.ToggleFollow(ctx)
			if res.Err != nil {
				fmt.Fprintf(out, "Follow failed: %s\n", gateway.Message(res.Err))
			}
			show()
		case "c":
			view := current.OpenComments(ctx)
			fmt.Fprint(out, a.formatter.FormatComments(view))
			a.panel.Close()
		case "s":
			msg, err := current.Share()
			if err != nil {
				fmt.Fprintf(out, "Share failed: %v\n", err)
				continue
			}
			fmt.Fprintln(out, msg)
		case "q":
			return nil
		case "":
		default:
			fmt.Fprintln(out, "Keys: j next, k previous, l like, f follow, c comments, s share, q quit")
		}
	}
}

// scroll reports the viewport position for card i to the pager. A failed
// load is retried by the next scroll.
func (a *app) scroll(ctx context.Context, i int) error {
	m := feed.ScrollMetrics{
		ScrollTop:      float64(i * cardHeight),
		ViewportHeight: cardHeight,
		ContentHeight:  float64(a.pager.Len() * cardHeight),
	}
	if _, err := a.pager.OnScroll(ctx, m); err != nil {
		a.logger.Warn().Err(err).Msg("failed to load more")
		return err
	}
	return nil
}

// newHTMLCmd creates the html subcommand.
func newHTMLCmd() *cobra.Command {
	var pages int
	var output string
	var search string

	cmd := &cobra.Command{
		Use:   "html",
		Short: "Write the feed as an HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			if search != "" {
				a.useSearch(search)
			}

			message := ""
			if err := a.loadPages(ctx, pages); err != nil {
				message = err.Error()
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output) // #nosec G304 -- path chosen by the user
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			return card.WritePage(w, "Reelfeed", a.pager.Cards(), message)
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "n", 1, "Number of pages to load")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Render videos matching this search instead of the feed")

	return cmd
}

// newWatchCmd creates the watch subcommand.
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Show one video with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			var video *gateway.VideoSummary
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				v, err := a.client.GetVideo(gctx, args[0])
				if err != nil {
					return err
				}
				video = v
				return nil
			})
			g.Go(func() error {
				a.panel.Open(gctx, args[0])
				return nil
			})
			if err := g.Wait(); err != nil {
				if errors.Is(err, gateway.ErrNotFound) {
					return fmt.Errorf("video %s not found", args[0])
				}
				return fmt.Errorf("couldn't load video: %s", gateway.Message(err))
			}

			h := a.renderer.Render(ctx, *video)
			defer h.Release()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.formatter.FormatCard(h, false))
			if s, ok := a.attacher.SessionFor(h.Surface()); ok {
				if hs, ok := s.(*media.HeadlessSession); ok {
					fmt.Fprint(out, a.formatter.FormatVariants(hs.Variants()))
				}
			}
			if view, ok := a.panel.Current(); ok {
				fmt.Fprint(out, a.formatter.FormatComments(view))
			}
			fmt.Fprintln(out, h.ShareURL())
			return nil
		},
	}

	return cmd
}

// newCommentCmd creates the comment subcommand.
func newCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Post a comment on a video",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			text := strings.Join(args[1:], " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("comment text is empty")
			}

			a.panel.Open(ctx, args[0])
			view, err := a.panel.Post(ctx, text)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter.FormatComments(view))
			return nil
		},
	}

	return cmd
}

// newShareCmd creates the share subcommand.
func newShareCmd() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Print a video's deep link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			link := card.WatchURL(cfg.Origin, args[0])
			fmt.Fprintln(cmd.OutOrStdout(), link)

			if open {
				if err := browser.Open(link); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the link in the default browser")

	return cmd
}

// newRateCmd creates the rate subcommand.
func newRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate <id> <stars>",
		Short: "Rate a video from 1 to 5 stars",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stars, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid stars %q: %w", args[1], gateway.ErrInvalidRating)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			if err := a.client.RateVideo(ctx, args[0], stars); err != nil {
				if errors.Is(err, gateway.ErrInvalidRating) {
					return err
				}
				return fmt.Errorf("couldn't rate video: %s", gateway.Message(err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Thanks!")
			return nil
		},
	}

	return cmd
}

// newDashboardCmd creates the dashboard subcommand.
func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "List videos with their status and statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			entries, err := a.client.ListDashboard(ctx)
			if err != nil {
				return fmt.Errorf("couldn't load list: %s", gateway.Message(err))
			}

			fmt.Fprint(cmd.OutOrStdout(), a.formatter.FormatDashboard(entries))
			return nil
		},
	}

	return cmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		Long:  "Show the resolved reelfeed configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", cfg.ConfigDir)
			fmt.Fprintf(out, "Origin: %s\n", cfg.Origin)
			fmt.Fprintf(out, "API URL: %s\n", cfg.APIURL)
			if cfg.RateLimit > 0 {
				fmt.Fprintf(out, "Rate limit: %g req/s\n", cfg.RateLimit)
			} else {
				fmt.Fprintln(out, "Rate limit: off")
			}
			if cfg.LogLevel != "" {
				fmt.Fprintf(out, "Log level: %s\n", cfg.LogLevel)
			}
			return nil
		},
	}

	return cmd
}
