// Package observe delivers snapshots of tables and rows as they change.
//
// An Observer hangs off a store.DB commit listener. Subscribing computes the
// current snapshot and registers the subscription in the same worker job, so
// no commit can fall between the two. After every commit that touches a
// subscription's table the snapshot is recomputed on the worker, against
// exactly the committed state, and queued for the subscriber when it
// differs from the last one queued.
//
//	sub, err := observe.ObserveRow(ctx, obs, people, int64(1))
//	if err != nil {
//		return err
//	}
//	defer sub.Cancel()
//
//	for snap := range sub.Changes() {
//		if !snap.Present {
//			break
//		}
//		fmt.Println(snap.Seq, snap.Row.Name)
//	}
//
// Writes inside a transaction are seen once, at COMMIT. A rolled back
// transaction is never seen, and subscribing from inside one fails with
// ErrInTransaction.
package observe
