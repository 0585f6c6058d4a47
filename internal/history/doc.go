// Package history persists coordinator outcomes to SQLite.
//
// Every Result the coordinator finishes (Execute, ExecuteCoordinated
// members, Retry, retry processor, Fallback) becomes one row in
// motion_executions. The table is created by the embedded migrations.
//
//	repo := history.NewSQLiteRepository(db.DB)
//	coord.SetObserver(func(r coordinator.Result) {
//	    rec := history.FromResult(r, time.Now())
//	    _ = repo.Record(ctx, &rec)
//	})
package history
