// Package interact applies like and follow changes optimistically: the new
// state is shown at once, then confirmed by the server or rolled back.
package interact

import (
	"context"
	"sync"
)

// Outcome reports how one toggle resolved.
type Outcome[S any] struct {
	// State is the displayed state once the toggle settled.
	State S
	// Pending is true when the toggle was folded into a request already in
	// flight for the same card; that request will reconcile it.
	Pending bool
	// Reverted is true when the server rejected the change.
	Reverted bool
	// Err is the failure behind a revert.
	Err error
}

// optimistic runs the apply, request, reconcile-or-revert cycle for one
// card-scoped boolean interaction.
type optimistic[S any] struct {
	// flip returns the speculative state after one user toggle.
	flip func(S) S
	// sameIntent reports whether two states express the same desired flag.
	sameIntent func(a, b S) bool
	// send reports the desired state and returns the reconciled state.
	send func(ctx context.Context, desired S) (S, error)

	mu        sync.Mutex
	shown     S
	confirmed S
	inFlight  bool
	onChange  func(S)
}

func (o *optimistic[S]) current() S {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shown
}

func (o *optimistic[S]) setShown(s S) {
	o.shown = s
	if o.onChange != nil {
		o.onChange(s)
	}
}

func (o *optimistic[S]) toggle(ctx context.Context) Outcome[S] {
	o.mu.Lock()
	o.setShown(o.flip(o.shown))
	if o.inFlight {
		shown := o.shown
		o.mu.Unlock()
		return Outcome[S]{State: shown, Pending: true}
	}
	o.inFlight = true
	desired := o.shown
	o.mu.Unlock()

	for {
		reconciled, err := o.send(ctx, desired)

		o.mu.Lock()
		if err != nil {
			o.inFlight = false
			o.setShown(o.confirmed)
			shown := o.shown
			o.mu.Unlock()
			return Outcome[S]{State: shown, Reverted: true, Err: err}
		}

		o.confirmed = reconciled
		if o.sameIntent(o.shown, desired) {
			o.inFlight = false
			o.setShown(reconciled)
			shown := o.shown
			o.mu.Unlock()
			return Outcome[S]{State: shown}
		}

		// Toggled again while the request was out: report the latest intent.
		o.setShown(o.flip(reconciled))
		desired = o.shown
		o.mu.Unlock()
	}
}
