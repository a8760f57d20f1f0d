// Package playback keeps at most one feed card playing, driven by how much of
// each card is inside the viewport.
package playback

// PlayThreshold is the visible ratio a card must exceed to play.
const PlayThreshold = 0.75

// Visibility is one observation of a card's visible ratio.
type Visibility struct {
	ID    string
	Ratio float64
	// Seq orders observations; higher is more recent.
	Seq uint64
}

// SelectActive picks the card that should be playing: among cards whose ratio
// exceeds PlayThreshold, the one observed most recently. Equal sequence
// numbers resolve to the later entry. It returns false when no card qualifies.
func SelectActive(visible []Visibility) (string, bool) {
	var (
		best  Visibility
		found bool
	)
	for _, v := range visible {
		if v.Ratio <= PlayThreshold {
			continue
		}
		if !found || v.Seq >= best.Seq {
			best = v
			found = true
		}
	}
	return best.ID, found
}
