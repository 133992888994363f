package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/meili"
)

var errPending = errors.New("update still enqueued")

// waitFor polls the status of update id until it leaves the queue. A failed
// update is returned as an error together with its status.
func (a *app) waitFor(ctx context.Context, idx *meili.Index, id int64) (meili.UpdateStatus, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.Wait.InitialIntervalMs) * time.Millisecond
	b.MaxInterval = time.Duration(a.cfg.Wait.MaxIntervalMs) * time.Millisecond
	b.MaxElapsedTime = time.Duration(a.cfg.Wait.MaxElapsedSec) * time.Second

	poll := func() (meili.UpdateStatus, error) {
		st, err := idx.GetUpdateStatus(ctx, id)
		if err != nil {
			var remote *meili.RemoteError
			if errors.As(err, &remote) || errors.Is(err, meili.ErrCanceled) {
				return st, backoff.Permanent(err)
			}
			return st, err
		}
		switch st.Status {
		case meili.UpdateProcessed:
			return st, nil
		case meili.UpdateFailed:
			return st, backoff.Permanent(fmt.Errorf("update %d failed: %s", id, st.Error))
		default:
			return st, errPending
		}
	}
	notify := func(err error, next time.Duration) {
		a.log.Debug("waiting for update",
			zap.String("index", idx.UID()),
			zap.Int64("update_id", id),
			zap.Duration("next_poll", next),
			zap.Error(err),
		)
	}

	st, err := backoff.RetryNotifyWithData(poll, backoff.WithContext(b, ctx), notify)
	if errors.Is(err, errPending) {
		return st, fmt.Errorf("update %d not processed after %ds", id, a.cfg.Wait.MaxElapsedSec)
	}
	return st, err
}

// finish reports an enqueued update, waiting for it first when asked to.
func (a *app) finish(cmd *cobra.Command, idx *meili.Index, up meili.AsyncUpdate, wait bool) error {
	if !wait {
		return a.print(cmd, up, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "update %d enqueued\n", up.UpdateID)
			return err
		})
	}

	st, err := a.waitFor(cmd.Context(), idx, up.UpdateID)
	if err != nil {
		return err
	}
	return a.print(cmd, st, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "update %d %s (%s)\n", st.UpdateID, st.Status, st.Type.Name)
		return err
	})
}
