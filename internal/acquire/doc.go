/*
Package acquire coordinates artifact acquisition (thumbnails, downloads)
from slow callback-based providers.

A Coordinator owns three collections, all guarded by one mutex: the set of
item ids already requested, the promises waiting for provider callbacks
(keyed by handle identity), and the cancel functions of running tasks.

Each requested item runs as one task:

 1. acquire a slot on the coordinator's gate
 2. for every target handle not yet cached: register a promise, issue the
    provider request, wait for the callback
 3. post-process and store each artifact, then notify once
 4. release the slot, whatever happened

A task whose context is cancelled stops at the next suspension point and
leaves no side effects. A task already waiting for a callback stays parked
until the provider answers or CancelAll resolves every promise with
ErrNoResult. There is no timeout and no automatic retry; Forget lets a caller
retry a failed item.
*/
package acquire
