/*
Package gate provides a counting admission gate that caps how many
acquisitions run against a slow provider at once.

	g := gate.New("thumbnail", 8)
	if err := g.Acquire(ctx); err != nil {
		return err // cancelled, no slot held
	}
	defer g.Release()

Waiters queue in FIFO order. Release hands the slot to the oldest waiter
without the active count ever exceeding the limit. A waiter whose context is
cancelled leaves the queue without consuming a slot.

CancelAll is for teardown: it wakes every waiter with ErrCancelled and resets
the active count to zero. Holders that are mid-flight finish normally, so
the gate may briefly admit more than its limit right after a reset.
*/
package gate
