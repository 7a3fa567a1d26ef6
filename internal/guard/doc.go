// Package guard is the process-exit backstop against leaked workspaces.
//
// main installs the factory once and fires the guard after the command
// tree returns, including when SIGINT or SIGTERM cancelled it:
//
//	ctx, stop := guard.NotifyContext(context.Background())
//	code := cmd.Execute(ctx)
//	stop()
//	guard.Fire()
//	os.Exit(code)
//
// Fire is best-effort. It sweeps once, logs failures and returns; it does
// not run on SIGKILL or a crash of the runtime itself.
package guard
