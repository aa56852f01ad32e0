package verifier

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent lookups in VerifyMany.
const DefaultConcurrency = 4

// VerifyMany looks up every UID with its own view, at most limit at a time,
// and returns the final states in input order. One failed lookup does not
// stop the others.
func VerifyMany(ctx context.Context, uids []string, limit int, newView func() *View) []State {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	states := make([]State, len(uids))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, uid := range uids {
		g.Go(func() error {
			view := newView()
			_ = view.Verify(ctx, uid)
			states[i] = view.State()
			return nil
		})
	}
	_ = g.Wait()
	return states
}
