// Package runtime contains the engine discovery and reconciliation logic.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
)

// Reconciler drives the set of labeled engine containers toward exactly one.
//
// There is no cross-process lock. When more than one labeled container is
// found the state is treated as corrupt and every candidate is removed so a
// fresh instance can be created.
type Reconciler struct {
	runtime Runtime
	log     *slog.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(rt Runtime) *Reconciler {
	return &Reconciler{runtime: rt, log: slog.With("component", "reconciler")}
}

// Discover returns every labeled engine container. It never fails: a list
// error is logged and reported as no candidates.
func (r *Reconciler) Discover(ctx context.Context) []Instance {
	instances, err := r.runtime.List(ctx)
	if err != nil {
		r.log.Warn("list engine containers", "err", err)
		return []Instance{}
	}
	return instances
}

// Reconcile applies the single-instance policy to candidates.
//
// With force every candidate is removed. A single candidate is adopted and
// started in place if it is not running. Several candidates are all removed.
// The adopted instance is returned; nil means a new one must be created.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []Instance, force bool) (*Instance, error) {
	switch {
	case force:
		r.log.Info("force start, removing engine containers", "count", len(candidates))
		return nil, r.removeAll(ctx, candidates)
	case len(candidates) == 1:
		return r.adopt(ctx, candidates[0])
	case len(candidates) > 1:
		r.log.Warn("multiple engine containers found, resetting", "count", len(candidates))
		return nil, r.removeAll(ctx, candidates)
	default:
		return nil, nil
	}
}

func (r *Reconciler) adopt(ctx context.Context, inst Instance) (*Instance, error) {
	if inst.Running() {
		r.log.Debug("adopting running engine", "id", inst.ID, "name", inst.Name)
		return &inst, nil
	}

	r.log.Info("starting stopped engine", "id", inst.ID, "state", inst.State)
	if err := r.runtime.Start(ctx, inst.ID); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", inst.Name, err)
	}
	started, err := r.runtime.Inspect(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("inspect engine %s: %w", inst.Name, err)
	}
	return &started, nil
}

func (r *Reconciler) removeAll(ctx context.Context, candidates []Instance) error {
	for _, inst := range candidates {
		if err := r.runtime.Remove(ctx, inst.ID); err != nil {
			return fmt.Errorf("remove engine %s: %w", inst.Name, err)
		}
		r.log.Debug("removed engine container", "id", inst.ID, "name", inst.Name)
	}
	return nil
}
