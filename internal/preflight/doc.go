// Package preflight checks that an index run can finish before it starts
// walking: the snapshot directory must be writable with room for a full
// copy of the snapshot, and the process needs enough file descriptors for
// the concurrent walk.
//
//	checker := preflight.New(preflight.WithWorkers(8))
//	results := checker.RunAll(ctx, "/home/me/.catalog/catalog.bin")
//	if checker.HasCriticalFailures(results) {
//	    // refuse to index
//	}
package preflight
