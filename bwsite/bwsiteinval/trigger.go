// Package bwsiteinval decides whether a deployment has to invalidate the CDN.
//
// The fingerprint of every asset root is compared with the one stored by the
// previous successful deployment. Any difference, or a missing predecessor,
// results in a single wildcard invalidation. The new fingerprints are only
// stored by Commit, which callers invoke after the invalidation and the rest
// of the deployment succeeded.
package bwsiteinval

import (
	"context"
	"fmt"

	"github.com/basewarphq/bwsite/bwsite/bwsitefp"
	"github.com/basewarphq/bwsite/bwsite/bwsitestore"
	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WildcardPath is the only path ever invalidated.
const WildcardPath = "/*"

// State is the outcome of comparing fingerprints.
type State int

const (
	// NoPriorFingerprint means nothing was stored for the root yet.
	NoPriorFingerprint State = iota
	// Unchanged means the stored fingerprint equals the current one.
	Unchanged
	// Changed means the stored fingerprint differs from the current one.
	Changed
)

func (s State) String() string {
	switch s {
	case NoPriorFingerprint:
		return "NoPriorFingerprint"
	case Unchanged:
		return "Unchanged"
	case Changed:
		return "Changed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Root is an asset directory identified by its logical resource name.
type Root struct {
	Key  string
	Path string
}

// Fingerprint is the current fingerprint of a root.
type Fingerprint struct {
	Key   string
	State bwsitefp.State
}

// RootDecision is the comparison result for one root.
type RootDecision struct {
	Key     string
	State   State
	Current bwsitefp.State
	Prior   string
}

// Decision is the comparison result for all roots of a deployment.
type Decision struct {
	// State is Unchanged only when every root is Unchanged, Changed otherwise.
	State State
	Roots []RootDecision
}

// Invalidate reports whether the CDN has to be invalidated. A missing prior
// fingerprint counts as a change.
func (d Decision) Invalidate() bool {
	return d.State != Unchanged
}

// Paths returns the invalidation paths, empty when nothing changed.
func (d Decision) Paths() []string {
	if !d.Invalidate() {
		return nil
	}
	return []string{WildcardPath}
}

// Decide compares current fingerprints with prior ones. A key missing from
// prior counts as a change.
func Decide(current []Fingerprint, prior map[string]string) Decision {
	d := Decision{State: Unchanged}
	for _, c := range current {
		rd := RootDecision{Key: c.Key, Current: c.State}
		p, ok := prior[c.Key]
		switch {
		case !ok:
			rd.State = NoPriorFingerprint
		case p == c.State.Hash:
			rd.State = Unchanged
			rd.Prior = p
		default:
			rd.State = Changed
			rd.Prior = p
		}
		if rd.State != Unchanged {
			d.State = Changed
		}
		d.Roots = append(d.Roots, rd)
	}
	return d
}

// Trigger evaluates and commits fingerprints against a Store.
type Trigger struct {
	fsys   billy.Filesystem
	store  bwsitestore.Store
	logger *zap.Logger
}

// New returns a Trigger reading roots from fsys.
func New(fsys billy.Filesystem, store bwsitestore.Store, logger *zap.Logger) *Trigger {
	return &Trigger{fsys: fsys, store: store, logger: logger}
}

// Evaluate fingerprints all roots concurrently and compares them with the store.
func (t *Trigger) Evaluate(ctx context.Context, roots []Root) (Decision, error) {
	current := make([]Fingerprint, len(roots))
	prior := make([]*string, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range roots {
		g.Go(func() error {
			st, err := bwsitefp.Compute(t.fsys, r.Path)
			if err != nil {
				return err
			}
			current[i] = Fingerprint{Key: r.Key, State: st}

			h, ok, err := t.store.Get(gctx, r.Key)
			if err != nil {
				return err
			}
			if ok {
				prior[i] = &h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Decision{}, err
	}

	priorByKey := map[string]string{}
	for i, p := range prior {
		if p != nil {
			priorByKey[roots[i].Key] = *p
		}
	}

	d := Decide(current, priorByKey)
	for _, rd := range d.Roots {
		t.logger.Info("fingerprint compared",
			zap.String("key", rd.Key),
			zap.String("path", rd.Current.Path),
			zap.Stringer("state", rd.State),
			zap.String("hash", rd.Current.Hash))
	}
	t.logger.Info("invalidation decided", zap.Stringer("state", d.State))
	return d, nil
}

// Commit stores the current fingerprints of a decision that invalidated. It
// does nothing for an Unchanged one.
func (t *Trigger) Commit(ctx context.Context, d Decision) error {
	if !d.Invalidate() {
		return nil
	}
	for _, rd := range d.Roots {
		if err := t.store.Put(ctx, rd.Key, rd.Current.Hash); err != nil {
			return err
		}
	}
	t.logger.Info("fingerprints stored", zap.Int("roots", len(d.Roots)))
	return nil
}
