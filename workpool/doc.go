// Package workpool provides the process-wide bounded worker pool used for
// CPU-bound fan-out work such as sieving independent segments.
//
// A Pool is created once, shared by every caller, and closed once. Its size
// bounds how many tasks run at the same time across all concurrent callers;
// callers never resize it.
//
// # Scatter/gather
//
// Gather runs a batch of independent tasks on the pool and returns their
// results in submission order, regardless of the order in which the tasks
// complete:
//
//	pool := workpool.New(workpool.Config{})
//	defer pool.Close()
//
//	results, err := workpool.Gather(ctx, pool, []workpool.Task[int]{
//	    func(context.Context) (int, error) { return 1, nil },
//	    func(context.Context) (int, error) { return 2, nil },
//	})
//
// The first failing task aborts the batch: tasks that have not started yet
// are skipped and no partial results are returned. Running tasks are never
// interrupted.
package workpool
