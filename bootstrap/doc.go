// Package bootstrap runs a pipeline program: it validates the typed config,
// initializes logging, starts infrastructure components, runs the pipeline
// as a finite task and shuts everything down in reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(monitorServer)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return buildGraph(ctx, app).Wait()
//	})
//
// SIGINT and SIGTERM cancel the task context. Node threads cannot be
// interrupted, so tasks stop their sources when the context is done and
// let the rest of the graph drain.
package bootstrap
