package interact

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/metrics"
)

// API is the subset of the gateway the coordinator needs.
type API interface {
	SetLike(ctx context.Context, videoID string, like bool) (gateway.LikeAck, error)
	SetFollow(ctx context.Context, userID string, follow bool) error
}

// LikeState is what a card displays for its like affordance.
type LikeState struct {
	Liked bool
	Count int64
}

// FollowState is what a card displays for its follow affordance.
type FollowState struct {
	Following bool
}

// Coordinator creates the per-card interaction states.
type Coordinator struct {
	api    API
	logger zerolog.Logger
}

// NewCoordinator creates a coordinator backed by api.
func NewCoordinator(api API, logger zerolog.Logger) *Coordinator {
	return &Coordinator{api: api, logger: logger}
}

// Like tracks one card's like flag and counter.
type Like struct {
	videoID string
	logger  zerolog.Logger
	state   *optimistic[LikeState]
}

// Like returns the like state for a card showing video.
func (c *Coordinator) Like(video gateway.VideoSummary, onChange func(LikeState)) *Like {
	initial := LikeState{Liked: video.Liked, Count: video.LikeCount}
	l := &Like{
		videoID: video.ID,
		logger:  c.logger.With().Str("video_id", video.ID).Logger(),
	}
	l.state = &optimistic[LikeState]{
		flip: flipLike,
		sameIntent: func(a, b LikeState) bool {
			return a.Liked == b.Liked
		},
		send: func(ctx context.Context, desired LikeState) (LikeState, error) {
			ack, err := c.api.SetLike(ctx, video.ID, desired.Liked)
			if err != nil {
				return LikeState{}, err
			}
			if ack.Likes != nil {
				desired.Count = max(*ack.Likes, 0)
			}
			return desired, nil
		},
		shown:     initial,
		confirmed: initial,
		onChange:  onChange,
	}
	return l
}

func flipLike(s LikeState) LikeState {
	if s.Liked {
		return LikeState{Liked: false, Count: max(s.Count-1, 0)}
	}
	return LikeState{Liked: true, Count: s.Count + 1}
}

// State returns the displayed like state.
func (l *Like) State() LikeState { return l.state.current() }

// Toggle flips the like flag and reports it to the server. A failed request
// restores the last confirmed state without surfacing the error.
func (l *Like) Toggle(ctx context.Context) Outcome[LikeState] {
	out := l.state.toggle(ctx)
	recordOutcome(l.logger, "like", out.Pending, out.Reverted, out.Err)
	return out
}

// Follow tracks one card's follow flag for the video's publisher.
type Follow struct {
	logger zerolog.Logger
	state  *optimistic[FollowState]
}

// Follow returns the follow state for a card showing video.
func (c *Coordinator) Follow(video gateway.VideoSummary, onChange func(FollowState)) *Follow {
	initial := FollowState{Following: video.Following}
	f := &Follow{
		logger: c.logger.With().Str("publisher_id", video.PublisherID).Logger(),
	}
	f.state = &optimistic[FollowState]{
		flip: func(s FollowState) FollowState {
			return FollowState{Following: !s.Following}
		},
		sameIntent: func(a, b FollowState) bool {
			return a.Following == b.Following
		},
		send: func(ctx context.Context, desired FollowState) (FollowState, error) {
			if err := c.api.SetFollow(ctx, video.PublisherID, desired.Following); err != nil {
				return FollowState{}, err
			}
			return desired, nil
		},
		shown:     initial,
		confirmed: initial,
		onChange:  onChange,
	}
	return f
}

// State returns the displayed follow state.
func (f *Follow) State() FollowState { return f.state.current() }

// Toggle flips the follow flag and reports it to the server.
func (f *Follow) Toggle(ctx context.Context) Outcome[FollowState] {
	out := f.state.toggle(ctx)
	recordOutcome(f.logger, "follow", out.Pending, out.Reverted, out.Err)
	return out
}

func recordOutcome(logger zerolog.Logger, kind string, pending, reverted bool, err error) {
	switch {
	case pending:
	case reverted:
		metrics.IncMutation(kind, metrics.OutcomeReverted)
		logger.Warn().Err(err).Str("kind", kind).Msg("mutation reverted")
	default:
		metrics.IncMutation(kind, metrics.OutcomeConfirmed)
		logger.Debug().Str("kind", kind).Msg("mutation confirmed")
	}
}
