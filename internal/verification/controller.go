package verification

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// Controller drives navigation away from one step. It is bound to the step
// and session that were active when it was created and becomes stale once
// either changes.
type Controller struct {
	store    *Store
	gen      uint64
	index    int
	step     StepName
	inFlight atomic.Bool
}

// Step returns the step the controller is bound to.
func (c *Controller) Step() StepName { return c.step }

// Index returns the step index the controller is bound to.
func (c *Controller) Index() int { return c.index }

// InFlight reports whether an advance is outstanding.
func (c *Controller) InFlight() bool { return c.inFlight.Load() }

// Advance validates form, persists it and moves to the next step. While an
// advance is outstanding further calls return ErrAdvanceInFlight and do
// nothing. On any error the step and record are unchanged.
func (c *Controller) Advance(ctx context.Context, form Form) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrAdvanceInFlight
	}
	defer c.inFlight.Store(false)

	if c.index >= LastIndex {
		return ErrTerminalStep
	}
	if form == nil || form.Step() != c.step {
		return &ValidationError{Fields: map[string]string{
			"step": fmt.Sprintf("form does not belong to step %s", c.step),
		}}
	}

	rec, slug, err := c.store.stepState(c.gen, c.index)
	if err != nil {
		return err
	}

	// Submitted and reviewed forms are read-only; the wizard only pages through them.
	if rec != nil && !rec.IsDraft() {
		return c.store.moveTo(c.gen, c.index, c.index+1, nil)
	}

	if err := form.Validate(rec); err != nil {
		return err
	}

	if c.index == 0 && rec != nil {
		return c.store.moveTo(c.gen, c.index, c.index+1, nil)
	}
	if c.index > 0 && rec == nil {
		return ErrNotLoaded
	}
	if rec != nil && !form.Changed(rec) && c.recorded(rec) {
		return c.store.moveTo(c.gen, c.index, c.index+1, nil)
	}

	next, err := callWithTimeout(ctx, c.store.opts.CallTimeout, func(ctx context.Context) (*Record, error) {
		if rec == nil {
			return c.store.opts.Remote.Create(ctx, slug)
		}
		return c.store.opts.Remote.Update(ctx, rec.ID, c.step, form.Input())
	})
	if err == nil {
		err = ValidateRecord(rec, next)
	}
	if err != nil {
		if c.store.isStale(c.gen) {
			return ErrStaleSession
		}
		rerr := &RemoteError{Op: "update", Step: c.step, Err: err}
		c.store.fail(rerr, map[string]string{
			"section": "advance",
			"step":    string(c.step),
			"slug":    slug,
		})
		return rerr
	}

	if err := c.store.moveTo(c.gen, c.index, c.index+1, next); err != nil {
		c.store.opts.Logger.Debug("Dropping stale verification update",
			zap.String("slug", slug),
			zap.String("step", string(c.step)))
		return err
	}
	c.store.opts.Logger.Info("Verification step saved",
		zap.String("slug", slug),
		zap.String("step", string(c.step)),
		zap.Int("next_step", c.index+1))
	return nil
}

// Retreat moves to the previous step, floored at the first. It never
// contacts the remote service and leaves lastStep untouched.
func (c *Controller) Retreat() error {
	to := c.index - 1
	if to < 0 {
		to = 0
	}
	return c.store.moveTo(c.gen, c.index, to, nil)
}

// recorded reports whether the server already holds this step as completed.
func (c *Controller) recorded(rec *Record) bool {
	i, ok := IndexOf(rec.LastStep)
	return ok && i >= c.index
}
