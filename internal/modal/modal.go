// Package modal implements the modal session lifecycle: the two-phase
// open that beats the platform's short trigger expiry, and the
// decode-metadata / mutate / encode-metadata / re-render cycle every
// wizard step runs through.
package modal

import (
	"context"

	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/errors"
	"github.com/Stage2Sec/frenzy/internal/logger"
)

// MutateFunc mutates a view's block tree and its decoded state in one
// update cycle. It may perform I/O; the controller awaits it before
// re-encoding and sending.
type MutateFunc[S any] func(ctx context.Context, view *chat.View, state *S) error

// Controller drives modal views whose metadata decodes into S. Each
// view instance owns its own metadata blob, so controllers are cheap
// and carry no per-view state.
type Controller[S any] struct {
	client chat.Client
}

// New creates a controller sending through the given client.
func New[S any](client chat.Client) *Controller[S] {
	return &Controller[S]{client: client}
}

// Open opens a modal view synchronously. Trigger ids are single-use
// and expire quickly, so callers that need slow setup should open a
// placeholder here and fill it in with OpenAndLoad or a later Update.
func (c *Controller[S]) Open(ctx context.Context, triggerID string, view *chat.View) (*chat.View, error) {
	if view.Type == "" {
		view.Type = "modal"
	}
	opened, err := c.client.OpenView(ctx, triggerID, view)
	if err != nil {
		logger.Error("Error opening modal: %v", err)
		return nil, err
	}
	return opened, nil
}

// OpenAndLoad performs the two-phase open: the placeholder view is
// sent synchronously (inside the acknowledgement window), then setup
// runs detached and re-renders the full content. A setup failure is
// logged and passed to onError for user-facing reporting.
func (c *Controller[S]) OpenAndLoad(ctx context.Context, triggerID string, placeholder *chat.View, setup MutateFunc[S], onError func(error)) (*chat.View, error) {
	opened, err := c.Open(ctx, triggerID, placeholder)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := c.Update(context.WithoutCancel(ctx), opened, setup); err != nil {
			logger.Error("Error loading modal content: %v", err)
			if onError != nil {
				onError(err)
			}
		}
	}()

	return opened, nil
}

// Update runs one update cycle on an open view: decode the metadata
// exactly once, apply mutate, encode exactly once, send the update.
// A failed send is returned as a *errors.RemoteUpdateError; the local
// mutation has already happened, so the remote render lags until the
// next successful update (known consistency gap, last send wins).
func (c *Controller[S]) Update(ctx context.Context, view *chat.View, mutate MutateFunc[S]) error {
	var state S
	if err := chat.DecodeMetadata(view, &state); err != nil {
		return err
	}

	if mutate != nil {
		if err := mutate(ctx, view, &state); err != nil {
			return err
		}
	}

	if err := chat.EncodeMetadata(view, &state); err != nil {
		return err
	}

	if err := c.client.UpdateView(ctx, view); err != nil {
		uerr := &errors.RemoteUpdateError{Op: "views.update", Err: err}
		logger.Error("Error updating modal: %v", uerr)
		return uerr
	}
	return nil
}
