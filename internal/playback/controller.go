package playback

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gauthierbraillon/reelfeed/internal/metrics"
)

// ErrUnknownCard is returned when observing a card that is not registered.
var ErrUnknownCard = errors.New("card is not registered")

// Card is the part of a rendered card the controller drives.
type Card interface {
	ID() string
	Play() error
	Pause()
}

// releaser is implemented by cards holding media sessions.
type releaser interface {
	Release()
}

type entry struct {
	card    Card
	ratio   float64
	seq     uint64
	playing bool
}

// Controller enforces the single-active-player rule across registered cards.
type Controller struct {
	logger zerolog.Logger

	mu      sync.Mutex
	cards   map[string]*entry
	seq     uint64
	current string
}

// NewController creates an empty controller.
func NewController(logger zerolog.Logger) *Controller {
	return &Controller{
		logger: logger,
		cards:  make(map[string]*entry),
	}
}

// Register starts observing card. The card starts paused with zero visibility.
// Registering an id twice replaces the earlier card.
func (c *Controller) Register(card Card) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.cards[card.ID()]; ok && old.card != card {
		c.forget(old)
	}
	card.Pause()
	c.cards[card.ID()] = &entry{card: card}
}

// Unregister stops observing the card, pauses it and releases its media.
func (c *Controller) Unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cards[id]; ok {
		c.forget(e)
		delete(c.cards, id)
	}
}

func (c *Controller) forget(e *entry) {
	e.card.Pause()
	e.playing = false
	if c.current == e.card.ID() {
		c.current = ""
	}
	if r, ok := e.card.(releaser); ok {
		r.Release()
	}
}

// Observe applies one batch of visibility changes and settles playback: the
// selected card plays and every other card is paused. Unknown ids are skipped.
func (c *Controller) Observe(batch []Visibility) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var unknown error
	for _, v := range batch {
		e, ok := c.cards[v.ID]
		if !ok {
			unknown = ErrUnknownCard
			continue
		}
		c.seq++
		crossed := e.ratio <= PlayThreshold && v.Ratio > PlayThreshold
		e.ratio = v.Ratio
		if crossed || e.seq == 0 {
			e.seq = c.seq
		}
	}

	candidates := make([]Visibility, 0, len(c.cards))
	for id, e := range c.cards {
		candidates = append(candidates, Visibility{ID: id, Ratio: e.ratio, Seq: e.seq})
	}
	next, ok := SelectActive(candidates)

	for id, e := range c.cards {
		if ok && id == next {
			continue
		}
		if e.playing {
			e.card.Pause()
			e.playing = false
		}
	}

	if !ok {
		c.current = ""
		return unknown
	}

	e := c.cards[next]
	if !e.playing {
		if err := e.card.Play(); err != nil {
			c.logger.Warn().Err(err).Str("video_id", next).Msg("failed to start playback")
			c.current = ""
			return unknown
		}
		e.playing = true
		if c.current != next {
			metrics.IncPlaySwitch()
		}
	}
	c.current = next
	return unknown
}

// Playing returns the id of the playing card.
func (c *Controller) Playing() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.current != ""
}

// PlayingCount returns how many cards are marked playing.
func (c *Controller) PlayingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.cards {
		if e.playing {
			n++
		}
	}
	return n
}

// Len returns the number of registered cards.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cards)
}
