package main

import (
	"context"
	"os"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/cmd"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/guard"
)

func main() {
	ctx, stop := guard.NotifyContext(context.Background())
	code := cmd.Execute(ctx)
	stop()
	guard.Fire()
	os.Exit(code)
}
