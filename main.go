// imagepub entrypoint
//
// Logs in to a registry, builds the image from the local Dockerfile, tags
// it as <user_name>/<image_name>, pushes it and optionally prunes the
// builder cache. Everything lives in cmd and internal; this file only wires
// signals and the exit code.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"imagepub/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
