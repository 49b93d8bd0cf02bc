package tracking

import "context"

// Run processes frames as they arrive and emits one Update per frame.
//
// The returned channel is closed when ctx is done or frames is closed.
// Frames that fail produce an Update with Err set rather than ending the
// stream. Run does not start or stop the tracker; a stopped tracker yields
// ErrIdle updates until Start is called, so one Tracker can serve several
// sessions in turn.
func (t *Tracker) Run(ctx context.Context, frames <-chan Frame) <-chan Update {
	out := make(chan Update)

	go func() {
		defer close(out)
		for {
			var (
				f  Frame
				ok bool
			)
			select {
			case <-ctx.Done():
				return
			case f, ok = <-frames:
				if !ok {
					return
				}
			}

			upd, err := t.Process(f)
			if err != nil {
				upd = &Update{Mode: t.Mode(), Err: err}
			}

			select {
			case out <- *upd:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
