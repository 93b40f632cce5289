// Package selection provides a persisted, observable single-value cell.
//
// A Selection holds one current value, notifies subscribers synchronously on
// every change, and mirrors each change into a storage.Store under a fixed
// key as JSON text. The selected team of an application is the canonical
// use:
//
//	store, _ := storage.Open(ctx, "file:///var/lib/app/state.json")
//	team, err := selection.NewSelectedTeam(ctx, store)
//	if err != nil {
//	    return err
//	}
//
//	unsubscribe := team.Subscribe(func(v any) {
//	    log.Println("selected team:", v)
//	})
//	defer unsubscribe()
//
//	team.Set("teamA") // subscribers see "teamA", then storage holds "\"teamA\""
//
// # Availability
//
// Whether the store is usable is decided once, at construction, with
// storage.IsAvailable. Contexts without persistence pass storage.Unavailable
// (or nil): the initial value is the zero value, nothing is read, and
// mutations only change memory for the lifetime of the Selection.
//
// # Ordering
//
// Set and Update replace the value, call every subscriber in subscription
// order, and only then write to storage. Subscribers must not call Set or
// Update on the Selection that is notifying them.
package selection
