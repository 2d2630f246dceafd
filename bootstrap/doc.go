// Package bootstrap runs the kubeping agent's components with a uniform
// lifecycle: validate config, initialize logging, start components in
// registration order, run hooks, print a startup summary, wait for a
// signal and stop everything in reverse order.
//
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    return err
//	}
//	app.RegisterComponent(telemetry)
//	app.RegisterComponent(discovery)
//	return app.Run(ctx)
//
// RunTask replaces the signal wait with a finite task, which the agent uses
// for single-round invocations.
package bootstrap
